package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CodexFabrica/Feder/internal/apperr"
)

// TempPrefix marks in-flight atomic writes; such files are hidden from
// directory listings and ignored by the project watcher.
const TempPrefix = ".feder-tmp-"

const tmpPattern = TempPrefix + "*"

type fsDir struct {
	path string // absolute
}

type fsFile struct {
	path string // absolute
}

// OpenDir returns a handle for an existing directory.
func OpenDir(path string) (Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve dir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open dir %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: not a directory: %s", path)
	}
	return &fsDir{path: abs}, nil
}

// Reopen re-resolves a stored directory ref, e.g. from the recents
// registry. A ref whose target moved or disappeared fails.
func Reopen(ref string) (Dir, error) {
	return OpenDir(ref)
}

// ReopenFile re-resolves a stored file ref.
func ReopenFile(ref string) (File, error) {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve file: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open file %s: %w", ref, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("storage: not a file: %s", ref)
	}
	return &fsFile{path: abs}, nil
}

// QueryAccess reports whether the ref currently points at a readable,
// writable directory, without attempting any escalation. Reopening a
// project needs both: reads to load it, writes to save into it.
func QueryAccess(ref string) bool {
	info, err := os.Stat(ref)
	if err != nil || !info.IsDir() {
		return false
	}
	if _, err := os.ReadDir(ref); err != nil {
		return false
	}
	probe, err := os.CreateTemp(ref, tmpPattern)
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true
}

// RequestAccess probes the ref for read and write access. There is no
// interactive escalation on a local file system, so the probe is the
// grant: failure maps to apperr.ErrPermissionDenied.
func RequestAccess(ref string) error {
	if _, err := os.ReadDir(ref); err != nil {
		return fmt.Errorf("storage: %s: %w", ref, apperr.ErrPermissionDenied)
	}
	probe, err := os.CreateTemp(ref, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: %s not writable: %w", ref, apperr.ErrPermissionDenied)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// childName rejects anything that is not a bare name, so a handle can
// never escape its directory.
func childName(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("storage: name must not contain separators: %q", name)
	}
	return name, nil
}

func (d *fsDir) Name() string { return filepath.Base(d.path) }
func (d *fsDir) Ref() string  { return d.path }

func (d *fsDir) File(name string, create bool) (File, error) {
	clean, err := childName(name)
	if err != nil {
		return nil, err
	}
	p := filepath.Join(d.path, clean)
	if !create {
		info, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("storage: stat %s: %w", name, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("storage: not a file: %s", name)
		}
	}
	return &fsFile{path: p}, nil
}

func (d *fsDir) Subdir(name string, create bool) (Dir, error) {
	clean, err := childName(name)
	if err != nil {
		return nil, err
	}
	p := filepath.Join(d.path, clean)
	if create {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return nil, fmt.Errorf("storage: create subdir %s: %w", name, err)
		}
		return &fsDir{path: p}, nil
	}
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("storage: %s: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: not a directory: %s", name)
	}
	return &fsDir{path: p}, nil
}

func (d *fsDir) Entries() ([]Entry, error) {
	children, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", d.path, err)
	}
	out := make([]Entry, 0, len(children))
	for _, c := range children {
		// Staged writes are invisible to listings.
		if strings.HasPrefix(c.Name(), TempPrefix) {
			continue
		}
		out = append(out, Entry{
			Name: c.Name(),
			Dir:  c.IsDir(),
			Ref:  filepath.Join(d.path, c.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fsFile) Name() string { return filepath.Base(f.path) }
func (f *fsFile) Ref() string  { return f.path }

func (f *fsFile) Read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", f.Name(), apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", f.Name(), err)
	}
	return data, nil
}

// Write stages the payload in a temp file, fsyncs, and renames it over
// the target, so no partial write is ever observable.
func (f *fsFile) Write(data []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
