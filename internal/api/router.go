package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/0Janvier/citadelle-library/internal/library"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *library.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Items CRUD and actions.
	r.Get("/items", h.ListItems)
	r.Post("/items", h.CreateItem)
	r.Get("/items/{id}", h.GetItem)
	r.Patch("/items/{id}", h.UpdateItem)
	r.Delete("/items/{id}", h.DeleteItem)
	r.Post("/items/{id}/duplicate", h.DuplicateItem)
	r.Post("/items/{id}/reset", h.ResetItem)
	r.Post("/items/{id}/favorite", h.ToggleFavorite)
	r.Post("/items/{id}/usage", h.IncrementUsage)

	// Categories CRUD.
	r.Get("/categories", h.ListCategories)
	r.Post("/categories", h.CreateCategory)
	r.Patch("/categories/{id}", h.UpdateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)

	// Search surfaces.
	r.Get("/suggestions", h.Suggestions)
	r.Get("/shortcuts", h.Shortcuts)

	// Transfer.
	r.Get("/export", h.Export)
	r.Post("/export/items", h.ExportItems)
	r.Post("/import", h.Import)

	// Backups.
	r.Get("/backups", h.ListBackups)
	r.Post("/backups", h.CreateBackup)
	r.Post("/backups/{name}/restore", h.RestoreBackup)

	// Store lifecycle.
	r.Get("/state", h.State)
	r.Post("/reload", h.Reload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
