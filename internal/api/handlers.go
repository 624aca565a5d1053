package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CodexFabrica/Feder/internal/apperr"
	"github.com/CodexFabrica/Feder/internal/models"
	"github.com/CodexFabrica/Feder/internal/recents"
	"github.com/CodexFabrica/Feder/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	sess *session.Session
	rec  *recents.DB
}

// NewHandler creates a new Handler.
func NewHandler(sess *session.Session, rec *recents.DB) *Handler {
	return &Handler{sess: sess, rec: rec}
}

// writeSessionError maps session errors onto HTTP statuses.
func writeSessionError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, errorBody("access denied"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetSession handles GET /api/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// CreateProject handles POST /api/session/project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Name      string      `json:"name"`
		Mode      models.Mode `json:"mode"`
		TargetRef string      `json:"target_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !req.Mode.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("mode must be journalist or researcher"))
		return
	}
	snap, err := h.sess.NewProject(r.Context(), req.Name, req.Mode, req.TargetRef)
	if err != nil {
		writeSessionError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// OpenProject handles POST /api/session/open.
func (h *Handler) OpenProject(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeRef(w, r)
	if !ok {
		return
	}
	snap, err := h.sess.OpenProject(r.Context(), ref)
	if err != nil {
		writeSessionError(w, "open project", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// OpenRecent handles POST /api/session/recent.
func (h *Handler) OpenRecent(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeRef(w, r)
	if !ok {
		return
	}
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("ref is required"))
		return
	}
	snap, err := h.sess.OpenRecent(r.Context(), ref)
	if err != nil {
		writeSessionError(w, "open recent", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// SelectFile handles POST /api/session/file.
func (h *Handler) SelectFile(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeRef(w, r)
	if !ok {
		return
	}
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("ref is required"))
		return
	}
	snap, err := h.sess.SelectFile(r.Context(), ref)
	if err != nil {
		writeSessionError(w, "select file", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Save handles POST /api/session/save.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sess.Save(r.Context())
	if err != nil {
		writeSessionError(w, "save", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Export handles POST /api/session/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ref, err := h.sess.Export(r.Context())
	if err != nil {
		writeSessionError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

// UploadImage handles POST /api/session/image. A null image in the
// response means nothing was inserted (dismissal or rejected file).
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ref, ok := decodeRef(w, r)
	if !ok {
		return
	}
	img := h.sess.UploadImage(r.Context(), ref)
	writeJSON(w, http.StatusOK, map[string]any{"image": img})
}

// CloseProject handles POST /api/session/close.
func (h *Handler) CloseProject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sess.NewDocument())
}

// Tree handles GET /api/session/tree.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.sess.Tree()
	if err != nil {
		writeSessionError(w, "tree", err)
		return
	}
	if nodes == nil {
		nodes = []*models.TreeNode{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tree": nodes})
}

// UpdateDocument handles PUT /api/session/document with optimistic
// concurrency via the If-Match header.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req struct {
		Content  *string        `json:"content"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == nil && req.Metadata == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("content or metadata is required"))
		return
	}

	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)
	snap, err := h.sess.UpdateDocument(req.Content, req.Metadata, ifMatch)
	if err != nil {
		writeSessionError(w, "update document", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// UpdateProject handles PUT /api/session/project (rename, mode switch).
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Name string      `json:"name"`
		Mode models.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Name == "" && req.Mode == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name or mode is required"))
		return
	}

	if req.Name != "" {
		h.sess.SetProjectName(req.Name)
	}
	if req.Mode != "" {
		if _, err := h.sess.SetMode(req.Mode); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("mode must be journalist or researcher"))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
}

// ListRecents handles GET /api/recents.
func (h *Handler) ListRecents(w http.ResponseWriter, r *http.Request) {
	list, err := h.rec.List()
	if err != nil {
		slog.Error("list recents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if list == nil {
		list = []models.RecentProject{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"recents": list})
}

func decodeRef(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return "", false
	}
	return req.Ref, true
}
