package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CodexFabrica/Feder/internal/recents"
	"github.com/CodexFabrica/Feder/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(sess *session.Session, rec *recents.DB, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(sess, rec)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Session state and transitions.
	r.Get("/session", h.GetSession)
	r.Post("/session/project", h.CreateProject)
	r.Put("/session/project", h.UpdateProject)
	r.Post("/session/open", h.OpenProject)
	r.Post("/session/recent", h.OpenRecent)
	r.Post("/session/file", h.SelectFile)
	r.Post("/session/save", h.Save)
	r.Post("/session/export", h.Export)
	r.Post("/session/image", h.UploadImage)
	r.Post("/session/close", h.CloseProject)
	r.Get("/session/tree", h.Tree)
	r.Put("/session/document", h.UpdateDocument)

	// Recents registry.
	r.Get("/recents", h.ListRecents)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
