// Package session implements the document and project state machine at
// the heart of Feder: which view is showing, which project and file are
// open, and how edits travel between memory and storage.
//
// The session is the single writer of its state. Collaborators receive
// read-only snapshots and feed edits back through setter methods; every
// transition either completes or leaves the state untouched.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/CodexFabrica/Feder/internal/apperr"
	"github.com/CodexFabrica/Feder/internal/digest"
	"github.com/CodexFabrica/Feder/internal/dockind"
	"github.com/CodexFabrica/Feder/internal/frontmatter"
	"github.com/CodexFabrica/Feder/internal/latex"
	"github.com/CodexFabrica/Feder/internal/models"
	"github.com/CodexFabrica/Feder/internal/recents"
	"github.com/CodexFabrica/Feder/internal/storage"
)

const (
	metadataFileName = "project_metadata.json"
	mainFileName     = "main.md"
	figuresDirName   = "figures"
	referencesName   = "references.bib"

	defaultProjectName = "Untitled Project"
)

var (
	dirNameRe      = regexp.MustCompile(`[^a-z0-9]+`)
	safeFileNameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

	imageMIMEs = map[string]string{
		".png":  "image/png",
		".jpg":  "image/jpeg",
		".jpeg": "image/jpeg",
		".svg":  "image/svg+xml",
		".gif":  "image/gif",
	}
)

// Notifier receives change events for the UI stream, e.g.
// "session.updated" or "file.created". Implementations must not block
// and must not call back into the session.
type Notifier func(kind, path string)

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	View     models.View             `json:"view"`
	Mode     models.Mode             `json:"mode"`
	Project  *models.ProjectInfo     `json:"project,omitempty"`
	Document models.DocumentSnapshot `json:"document"`
}

type document struct {
	name     string
	kind     dockind.Kind
	file     storage.File
	src      string
	content  string
	metadata map[string]any
}

// Session owns the current project and document for the process
// lifetime. Welcome and Editor are mutually reachable; there is no
// terminal state.
type Session struct {
	mu      sync.Mutex
	logger  *slog.Logger
	picker  storage.Picker
	recents *recents.DB
	notify  Notifier
	watch   bool

	view     models.View
	mode     models.Mode
	projDir  storage.Dir
	projMeta models.ProjectMetadata
	doc      document

	watchCancel context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithNotifier registers a change-event sink.
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notify = n }
}

// WithWatcher enables the fsnotify watcher on the open project root.
func WithWatcher() Option {
	return func(s *Session) { s.watch = true }
}

// New creates a session in the Welcome view.
func New(rec *recents.DB, picker storage.Picker, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		logger:   logger,
		picker:   picker,
		recents:  rec,
		view:     models.ViewWelcome,
		mode:     models.ModeJournalist,
		projMeta: models.ProjectMetadata{Name: defaultProjectName},
		doc:      emptyDocument(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close stops the project watcher, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatcherLocked()
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// NewProject creates and opens a project. Researcher mode scaffolds a
// directory under targetRef (or a picked parent when targetRef is
// empty); journalist mode seeds a single document at a save location.
// A dismissed picker is a silent no-op.
func (s *Session) NewProject(ctx context.Context, name string, mode models.Mode, targetRef string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !mode.Valid() {
		return s.snapshotLocked(), fmt.Errorf("session: unknown mode %q", mode)
	}
	display := strings.TrimSpace(name)
	if display == "" {
		display = defaultProjectName
	}
	if mode == models.ModeJournalist {
		return s.newJournalistLocked(ctx, display, targetRef)
	}
	return s.newResearcherLocked(ctx, display, targetRef)
}

func (s *Session) newResearcherLocked(ctx context.Context, display, targetRef string) (Snapshot, error) {
	parent, err := s.resolveDirLocked(ctx, targetRef)
	if errors.Is(err, apperr.ErrCancelled) {
		return s.snapshotLocked(), nil
	}
	if err != nil {
		return s.snapshotLocked(), err
	}

	projDir, err := s.scaffoldProjectLocked(parent, display, seedDocument(display))
	if err != nil {
		return s.snapshotLocked(), err
	}

	meta := models.ProjectMetadata{Name: display, Mode: models.ModeResearcher}
	s.loadProjectLocked(projDir, meta)
	s.emitLocked()
	return s.snapshotLocked(), nil
}

func (s *Session) newJournalistLocked(ctx context.Context, display, targetRef string) (Snapshot, error) {
	var f storage.File
	var err error
	if targetRef == "" {
		f, err = s.picker.PickFileToSave(ctx, projectDirName(display)+".md")
	} else {
		var dir storage.Dir
		dir, err = storage.Reopen(targetRef)
		if err == nil {
			f, err = dir.File(projectDirName(display)+".md", true)
		}
	}
	if errors.Is(err, apperr.ErrCancelled) {
		return s.snapshotLocked(), nil
	}
	if err != nil {
		return s.snapshotLocked(), err
	}

	seed := "# " + display + "\n\n"
	if err := f.Write([]byte(seed)); err != nil {
		return s.snapshotLocked(), err
	}

	s.stopWatcherLocked()
	s.mode = models.ModeJournalist
	s.projDir = nil
	s.projMeta = models.ProjectMetadata{Name: display, Mode: models.ModeJournalist}
	s.doc = document{
		name:     f.Name(),
		kind:     dockind.KindDocument,
		file:     f,
		content:  seed,
		metadata: map[string]any{},
	}
	s.view = models.ViewEditor
	s.emitLocked()
	return s.snapshotLocked(), nil
}

// scaffoldProjectLocked creates the standard researcher layout under
// parent: metadata record, seeded main document, figures directory,
// empty bibliography. It registers the project in recents.
func (s *Session) scaffoldProjectLocked(parent storage.Dir, display string, seed []byte) (storage.Dir, error) {
	projDir, err := parent.Subdir(projectDirName(display), true)
	if err != nil {
		return nil, err
	}

	meta := models.ProjectMetadata{Name: display, Mode: models.ModeResearcher}
	if err := writeProjectMetadata(projDir, meta); err != nil {
		return nil, err
	}

	mainFile, err := projDir.File(mainFileName, true)
	if err != nil {
		return nil, err
	}
	if err := mainFile.Write(seed); err != nil {
		return nil, err
	}

	if _, err := projDir.Subdir(figuresDirName, true); err != nil {
		return nil, err
	}
	refs, err := projDir.File(referencesName, true)
	if err != nil {
		return nil, err
	}
	if err := refs.Write(nil); err != nil {
		return nil, err
	}

	if err := s.recents.Upsert(projDir.Ref(), display, models.ModeResearcher); err != nil {
		s.logger.Warn("recents upsert failed", slog.String("ref", projDir.Ref()), slog.String("error", err.Error()))
	}
	return projDir, nil
}

// OpenProject opens an existing directory-backed project. With an empty
// ref the directory picker decides; cancellation is a silent no-op.
func (s *Session) OpenProject(ctx context.Context, ref string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.resolveDirLocked(ctx, ref)
	if errors.Is(err, apperr.ErrCancelled) {
		return s.snapshotLocked(), nil
	}
	if err != nil {
		return s.snapshotLocked(), err
	}

	meta := readProjectMetadata(dir)
	if err := s.recents.Upsert(dir.Ref(), meta.Name, meta.Mode); err != nil {
		s.logger.Warn("recents upsert failed", slog.String("ref", dir.Ref()), slog.String("error", err.Error()))
	}

	s.loadProjectLocked(dir, meta)
	s.emitLocked()
	return s.snapshotLocked(), nil
}

// OpenRecent re-opens a project from the recents registry after
// re-validating access to its stored ref. Denied or stale refs fail
// without mutating the session or the entry's timestamp.
func (s *Session) OpenRecent(ctx context.Context, ref string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.recents.Get(ref)
	if err != nil {
		return s.snapshotLocked(), err
	}

	if !storage.QueryAccess(entry.Ref) {
		if err := storage.RequestAccess(entry.Ref); err != nil {
			return s.snapshotLocked(), fmt.Errorf("session: open %q: project may have been moved or deleted: %w", entry.Name, err)
		}
	}

	dir, err := storage.Reopen(entry.Ref)
	if err != nil {
		return s.snapshotLocked(), err
	}

	meta := readProjectMetadata(dir)
	if err := s.recents.Upsert(dir.Ref(), meta.Name, meta.Mode); err != nil {
		s.logger.Warn("recents upsert failed", slog.String("ref", dir.Ref()), slog.String("error", err.Error()))
	}

	s.loadProjectLocked(dir, meta)
	s.emitLocked()
	return s.snapshotLocked(), nil
}

// SelectFile replaces the open document with the file at ref. Image
// files only swap the display source, leaving content and metadata as
// they were. Refs that point at directories are ignored.
func (s *Session) SelectFile(_ context.Context, ref string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != models.ViewEditor {
		return s.snapshotLocked(), fmt.Errorf("session: no editor open")
	}
	if s.projDir != nil && !withinDir(s.projDir.Ref(), ref) {
		return s.snapshotLocked(), fmt.Errorf("session: file outside project: %s", ref)
	}

	f, err := storage.ReopenFile(ref)
	if err != nil {
		if _, dirErr := storage.Reopen(ref); dirErr == nil {
			return s.snapshotLocked(), nil // directory selected: ignore
		}
		return s.snapshotLocked(), err
	}

	if dockind.Classify(f.Name()) == dockind.KindImage {
		s.doc.name = f.Name()
		s.doc.kind = dockind.KindImage
		s.doc.file = f
		s.doc.src = s.displaySrcLocked(f)
	} else if err := s.openFileLocked(f); err != nil {
		return s.snapshotLocked(), err
	}

	s.emitLocked()
	return s.snapshotLocked(), nil
}

// Save persists the current document. Images are a no-op. In researcher
// mode the project metadata record is written before the document; the
// first save of an unbound document creates it under the project root
// and binds the handle, so a second save overwrites rather than
// duplicates. A researcher save with no project open promotes into
// project creation seeded from the current content.
func (s *Session) Save(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != models.ViewEditor || s.doc.kind == dockind.KindImage {
		return s.snapshotLocked(), nil
	}

	raw, err := s.serializedLocked()
	if err != nil {
		return s.snapshotLocked(), fmt.Errorf("session: save: %w", err)
	}
	payload := []byte(raw)

	switch {
	case s.mode == models.ModeResearcher && s.projDir != nil:
		err = s.saveInProjectLocked(payload)
	case s.mode == models.ModeResearcher:
		err = s.promoteToProjectLocked(ctx, payload)
	default:
		err = s.saveJournalistLocked(ctx, payload)
	}
	if err != nil {
		return s.snapshotLocked(), err
	}

	s.emitLocked()
	return s.snapshotLocked(), nil
}

func (s *Session) saveInProjectLocked(payload []byte) error {
	// Metadata record first, document second.
	if err := writeProjectMetadata(s.projDir, s.projMeta); err != nil {
		return err
	}

	if s.doc.file != nil {
		if err := s.doc.file.Write(payload); err != nil {
			return err
		}
	} else {
		name := s.doc.name
		if name == "" {
			name = mainFileName
		}
		f, err := s.projDir.File(name, true)
		if err != nil {
			return err
		}
		if err := f.Write(payload); err != nil {
			return err
		}
		s.doc.file = f
		s.doc.name = f.Name()
	}

	if err := s.recents.Upsert(s.projDir.Ref(), s.projMeta.Name, s.mode); err != nil {
		s.logger.Warn("recents upsert failed", slog.String("ref", s.projDir.Ref()), slog.String("error", err.Error()))
	}
	return nil
}

func (s *Session) promoteToProjectLocked(ctx context.Context, payload []byte) error {
	parent, err := s.picker.PickDirectory(ctx)
	if errors.Is(err, apperr.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	display := s.projMeta.Name
	if strings.TrimSpace(display) == "" {
		display = defaultProjectName
	}
	projDir, err := s.scaffoldProjectLocked(parent, display, payload)
	if err != nil {
		return err
	}

	mainFile, err := projDir.File(mainFileName, false)
	if err != nil {
		return err
	}

	s.projDir = projDir
	s.projMeta = models.ProjectMetadata{Name: display, Mode: models.ModeResearcher}
	s.doc.file = mainFile
	s.doc.name = mainFileName
	s.startWatcherLocked()
	return nil
}

func (s *Session) saveJournalistLocked(ctx context.Context, payload []byte) error {
	if s.doc.file == nil {
		suggested := s.doc.name
		if suggested == "" {
			suggested = "untitled.md"
		}
		f, err := s.picker.PickFileToSave(ctx, suggested)
		if errors.Is(err, apperr.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		s.doc.file = f
		s.doc.name = f.Name()
	}
	return s.doc.file.Write(payload)
}

// Export renders the current document through the LaTeX generator and
// writes it as a .tex sibling in the project, or to a picked save
// target otherwise. It returns the destination ref, empty when the
// picker was dismissed. The document state is never mutated.
func (s *Session) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != models.ViewEditor {
		return "", fmt.Errorf("session: nothing to export")
	}

	tex := latex.Generate(s.doc.content, s.doc.metadata)
	base := strings.TrimSuffix(s.doc.name, ".md")
	if base == "" {
		base = "export"
	}
	name := base + ".tex"

	if s.mode == models.ModeResearcher && s.projDir != nil {
		f, err := s.projDir.File(name, true)
		if err != nil {
			return "", err
		}
		if err := f.Write([]byte(tex)); err != nil {
			return "", err
		}
		return f.Ref(), nil
	}

	f, err := s.picker.PickFileToSave(ctx, name)
	if errors.Is(err, apperr.ErrCancelled) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if err := f.Write([]byte(tex)); err != nil {
		return "", err
	}
	return f.Ref(), nil
}

// UploadImage copies the image at ref (or a picked file when ref is
// empty) into the project's figures directory and returns a
// project-relative source, or inlines it as a data URI when no project
// is open. Cancellation and any failure yield a nil result, never an
// error; the caller reads nil as "no image inserted".
func (s *Session) UploadImage(ctx context.Context, ref string) *models.ImageRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f storage.File
	var err error
	if ref == "" {
		f, err = s.picker.PickFileToOpen(ctx)
	} else {
		f, err = storage.ReopenFile(ref)
	}
	if errors.Is(err, apperr.ErrCancelled) {
		return nil
	}
	if err != nil {
		s.logger.Warn("image upload failed", slog.String("ref", ref), slog.String("error", err.Error()))
		return nil
	}

	name := sanitizeFileName(f.Name())
	mime, ok := imageMIMEs[strings.ToLower(filepath.Ext(name))]
	if !ok {
		s.logger.Warn("unsupported image type", slog.String("name", f.Name()))
		return nil
	}

	data, err := f.Read()
	if err != nil {
		s.logger.Warn("image read failed", slog.String("ref", f.Ref()), slog.String("error", err.Error()))
		return nil
	}

	if s.mode == models.ModeResearcher && s.projDir != nil {
		dst := s.projDir
		srcPrefix := ""
		if figures, ferr := s.projDir.Subdir(figuresDirName, true); ferr == nil {
			dst = figures
			srcPrefix = figuresDirName + "/"
		}
		out, err := dst.File(name, true)
		if err == nil {
			err = out.Write(data)
		}
		if err != nil {
			s.logger.Warn("image copy failed", slog.String("name", name), slog.String("error", err.Error()))
			return nil
		}
		return &models.ImageRef{Alt: name, Src: srcPrefix + name}
	}

	return &models.ImageRef{
		Alt: name,
		Src: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// NewDocument closes the project and returns to the Welcome view. It
// clears session state only; nothing is deleted from storage.
func (s *Session) NewDocument() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopWatcherLocked()
	s.view = models.ViewWelcome
	s.projDir = nil
	s.projMeta = models.ProjectMetadata{Name: defaultProjectName}
	s.doc = emptyDocument()
	s.emitLocked()
	return s.snapshotLocked()
}

// SetContent replaces the document body.
func (s *Session) SetContent(content string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.content = content
	s.emitLocked()
	return s.snapshotLocked()
}

// SetMetadata replaces the document metadata, normalizing legacy shapes.
func (s *Session) SetMetadata(meta map[string]any) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.metadata = frontmatter.Normalize(meta, s.mode)
	s.emitLocked()
	return s.snapshotLocked()
}

// UpdateDocument applies content and/or metadata edits. A non-empty
// ifMatch checksum must equal the current document checksum, otherwise
// the edit is rejected with apperr.ErrConflict. This is the guard
// against a client acting on a stale snapshot.
func (s *Session) UpdateDocument(content *string, meta map[string]any, ifMatch string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ifMatch != "" && ifMatch != s.checksumLocked() {
		return s.snapshotLocked(), fmt.Errorf("session: stale document snapshot: %w", apperr.ErrConflict)
	}
	if content != nil {
		s.doc.content = *content
	}
	if meta != nil {
		s.doc.metadata = frontmatter.Normalize(meta, s.mode)
	}
	s.emitLocked()
	return s.snapshotLocked(), nil
}

// SetProjectName renames the open project. The new name is persisted
// with the next save.
func (s *Session) SetProjectName(name string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = strings.TrimSpace(name)
	if name != "" {
		s.projMeta.Name = name
	}
	s.emitLocked()
	return s.snapshotLocked()
}

// SetMode switches the authoring mode.
func (s *Session) SetMode(mode models.Mode) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !mode.Valid() {
		return s.snapshotLocked(), fmt.Errorf("session: unknown mode %q", mode)
	}
	s.mode = mode
	s.emitLocked()
	return s.snapshotLocked(), nil
}

// Tree returns the explorer tree of the open project, or nil without a
// project. Bibliography files are hidden outside researcher mode.
func (s *Session) Tree() ([]*models.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projDir == nil {
		return nil, nil
	}
	return buildTree(s.projDir, s.mode)
}

// --- internals ---

func emptyDocument() document {
	return document{
		kind:     dockind.KindDocument,
		metadata: map[string]any{},
	}
}

func seedDocument(name string) []byte {
	return []byte("# " + name + "\n\nStart writing...")
}

func (s *Session) resolveDirLocked(ctx context.Context, ref string) (storage.Dir, error) {
	if ref == "" {
		return s.picker.PickDirectory(ctx)
	}
	return storage.Reopen(ref)
}

// loadProjectLocked switches the session onto dir: project metadata,
// mode, and the first document found at the project root. A project
// with no document starts the editor on an empty, unsaved document.
func (s *Session) loadProjectLocked(dir storage.Dir, meta models.ProjectMetadata) {
	s.stopWatcherLocked()
	s.projDir = dir
	s.projMeta = meta
	s.mode = meta.Mode
	s.view = models.ViewEditor

	opened := false
	entries, err := dir.Entries()
	if err != nil {
		s.logger.Warn("project scan failed", slog.String("ref", dir.Ref()), slog.String("error", err.Error()))
	}
	for _, e := range entries {
		if e.Dir || dockind.Classify(e.Name) != dockind.KindDocument {
			continue
		}
		f, ferr := dir.File(e.Name, false)
		if ferr != nil {
			continue
		}
		if s.openFileLocked(f) == nil {
			opened = true
			break
		}
	}
	if !opened {
		s.doc = emptyDocument()
	}
	s.startWatcherLocked()
}

func (s *Session) openFileLocked(f storage.File) error {
	data, err := f.Read()
	if err != nil {
		return err
	}
	kind := dockind.Classify(f.Name())
	d := document{
		name:     f.Name(),
		kind:     kind,
		file:     f,
		metadata: map[string]any{},
	}
	if kind.UsesFrontmatter() {
		meta, body := frontmatter.Parse(string(data))
		d.metadata = frontmatter.Normalize(meta, s.mode)
		d.content = body
	} else {
		d.content = string(data)
	}
	s.doc = d
	return nil
}

func (s *Session) serializedLocked() (string, error) {
	if s.doc.kind.UsesFrontmatter() {
		return frontmatter.Serialize(s.doc.content, s.doc.metadata)
	}
	return s.doc.content, nil
}

// checksumLocked hashes the serialized document. When the metadata
// cannot be rendered the hash covers the body alone; Save will refuse
// such a document anyway, so the checksum only needs to stay stable.
func (s *Session) checksumLocked() string {
	raw, err := s.serializedLocked()
	if err != nil {
		return digest.SumString(s.doc.content)
	}
	return digest.SumString(raw)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{View: s.view, Mode: s.mode}
	if s.projDir != nil {
		snap.Project = &models.ProjectInfo{
			Name: s.projMeta.Name,
			Mode: s.projMeta.Mode,
			Ref:  s.projDir.Ref(),
		}
	}
	doc := models.DocumentSnapshot{
		Name:     s.doc.name,
		Kind:     s.doc.kind,
		Src:      s.doc.src,
		Content:  s.doc.content,
		Metadata: copyMetadata(s.doc.metadata),
		Checksum: s.checksumLocked(),
	}
	if s.doc.file != nil {
		doc.Ref = s.doc.file.Ref()
	}
	snap.Document = doc
	return snap
}

func (s *Session) displaySrcLocked(f storage.File) string {
	if s.projDir != nil {
		if rel, err := filepath.Rel(s.projDir.Ref(), f.Ref()); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return f.Ref()
}

func (s *Session) emitLocked() {
	if s.notify != nil {
		s.notify("session.updated", "")
	}
}

func writeProjectMetadata(dir storage.Dir, meta models.ProjectMetadata) error {
	if meta.Mode == "" {
		meta.Mode = models.ModeResearcher
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode project metadata: %w", err)
	}
	f, err := dir.File(metadataFileName, true)
	if err != nil {
		return err
	}
	return f.Write(data)
}

// readProjectMetadata loads the project record, synthesizing
// {directory name, researcher} when the file is absent or unreadable.
// The fallback never fails an open.
func readProjectMetadata(dir storage.Dir) models.ProjectMetadata {
	fallback := models.ProjectMetadata{Name: dir.Name(), Mode: models.ModeResearcher}

	f, err := dir.File(metadataFileName, false)
	if err != nil {
		return fallback
	}
	data, err := f.Read()
	if err != nil {
		return fallback
	}
	var meta models.ProjectMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return fallback
	}
	if meta.Name == "" {
		meta.Name = dir.Name()
	}
	if !meta.Mode.Valid() {
		meta.Mode = models.ModeResearcher
	}
	return meta
}

// copyMetadata clones the mapping deeply, so nested values (the
// authors list in particular) are never shared between the live
// document and a snapshot.
func copyMetadata(meta map[string]any) map[string]any {
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = copyMetadataValue(v)
	}
	return out
}

func copyMetadataValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyMetadataValue(e)
		}
		return out
	default:
		return v
	}
}

// projectDirName derives a directory-safe slug from a display name.
func projectDirName(display string) string {
	slug := dirNameRe.ReplaceAllString(strings.ToLower(display), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "untitled-project"
	}
	return slug
}

// sanitizeFileName strips path separators and unsafe characters.
func sanitizeFileName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	name = safeFileNameRe.ReplaceAllString(filepath.Base(name), "_")
	if strings.Trim(name, "._") == "" {
		name = uuid.New().String() + ext
	}
	return name
}

func withinDir(root, ref string) bool {
	rel, err := filepath.Rel(root, ref)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
