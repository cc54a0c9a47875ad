package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/0Janvier/citadelle-library/internal/apperr"
	"github.com/0Janvier/citadelle-library/internal/library"
	"github.com/0Janvier/citadelle-library/internal/models"
)

const maxBodySize = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *library.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *library.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	default:
		slog.Error(logMsg, slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func filtersFromQuery(r *http.Request) models.Filters {
	q := r.URL.Query()
	f := models.DefaultFilters()
	f.Query = q.Get("q")
	f.Type = models.ItemType(q.Get("type"))
	f.CategoryID = q.Get("category")
	f.FavoritesOnly = q.Get("favorites") == "true"
	if v := q.Get("sort"); v != "" {
		f.SortBy = models.SortOption(v)
	}
	if v := q.Get("dir"); v != "" {
		f.SortDir = models.SortDirection(v)
	}
	return f
}

// ListItems handles GET /api/items.
//
//	@Summary		List items with optional filtering and search
//	@Tags			items
//	@Produce		json
//	@Param			q			query		string	false	"Search query"
//	@Param			type		query		string	false	"Item type"	Enums(clause, snippet)
//	@Param			category	query		string	false	"Category id"
//	@Param			favorites	query		bool	false	"Favorites only"
//	@Param			sort		query		string	false	"Sort field"	Enums(name, usage, created, updated)
//	@Param			dir			query		string	false	"Sort direction"	Enums(asc, desc)
//	@Success		200			{object}	ItemListResponse
//	@Security		BearerAuth
//	@Router			/items [get]
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListItems(filtersFromQuery(r))
	writeJSON(w, http.StatusOK, ItemListResponse{Items: items, Total: len(items)})
}

// GetItem handles GET /api/items/{id}.
//
//	@Summary		Get a single item by id
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [get]
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetItem(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "get item failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /api/items.
//
//	@Summary		Create a new item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.ItemDraft	true	"Item to create"
//	@Success		201		{object}	Item
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items [post]
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var draft models.ItemDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	item, err := h.svc.CreateItem(r.Context(), draft)
	if err != nil {
		writeError(w, err, "create item failed")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem handles PATCH /api/items/{id}.
//
//	@Summary		Apply a partial update to an item
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Item id"
//	@Param			body	body		models.ItemPatch	true	"Fields to update"
//	@Success		200		{object}	Item
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [patch]
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var patch models.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	item, err := h.svc.UpdateItem(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err, "update item failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/items/{id}.
//
//	@Summary		Delete an item
//	@Tags			items
//	@Produce		json
//	@Param			id	path	string	true	"Item id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id} [delete]
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "delete item failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateItem handles POST /api/items/{id}/duplicate.
//
//	@Summary		Duplicate an item under a fresh id
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		201	{object}	Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/duplicate [post]
func (h *Handler) DuplicateItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.DuplicateItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "duplicate item failed")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ResetItem handles POST /api/items/{id}/reset.
//
//	@Summary		Restore a modified builtin to its shipped form
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	Item
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/reset [post]
func (h *Handler) ResetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.ResetToBuiltin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "reset item failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ToggleFavorite handles POST /api/items/{id}/favorite.
//
//	@Summary		Toggle the favorite flag
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/favorite [post]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.ToggleFavorite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "toggle favorite failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// IncrementUsage handles POST /api/items/{id}/usage.
//
//	@Summary		Record one use of an item
//	@Tags			items
//	@Produce		json
//	@Param			id	path		string	true	"Item id"
//	@Success		200	{object}	Item
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/items/{id}/usage [post]
func (h *Handler) IncrementUsage(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.IncrementUsage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, "increment usage failed")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// ListCategories handles GET /api/categories.
//
//	@Summary		List categories in display order
//	@Tags			categories
//	@Produce		json
//	@Success		200	{object}	CategoryListResponse
//	@Security		BearerAuth
//	@Router			/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CategoryListResponse{Categories: h.svc.Categories()})
}

// CreateCategory handles POST /api/categories.
//
//	@Summary		Create a new category
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.CategoryDraft	true	"Category to create"
//	@Success		201		{object}	Category
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/categories [post]
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var draft models.CategoryDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	cat, err := h.svc.CreateCategory(r.Context(), draft)
	if err != nil {
		writeError(w, err, "create category failed")
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// UpdateCategory handles PATCH /api/categories/{id}.
//
//	@Summary		Apply a partial update to a category
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Category id"
//	@Param			body	body		models.CategoryPatch	true	"Fields to update"
//	@Success		200		{object}	Category
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/categories/{id} [patch]
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var patch models.CategoryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	cat, err := h.svc.UpdateCategory(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err, "update category failed")
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

// DeleteCategory handles DELETE /api/categories/{id}.
//
//	@Summary		Delete a custom category
//	@Tags			categories
//	@Produce		json
//	@Param			id	path	string	true	"Category id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/categories/{id} [delete]
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err, "delete category failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suggestions handles GET /api/suggestions.
//
//	@Summary		Editor autocomplete suggestions for a partial query
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Partial query"
//	@Success		200	{object}	SuggestionsResponse
//	@Security		BearerAuth
//	@Router			/suggestions [get]
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	items := h.svc.Suggestions(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: items})
}

// Shortcuts handles GET /api/shortcuts.
//
//	@Summary		List every assigned shortcut
//	@Tags			search
//	@Produce		json
//	@Success		200	{object}	ShortcutsResponse
//	@Security		BearerAuth
//	@Router			/shortcuts [get]
func (h *Handler) Shortcuts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ShortcutsResponse{Shortcuts: h.svc.AllShortcuts()})
}

// Export handles GET /api/export.
//
//	@Summary		Export the whole library as a portable document
//	@Tags			transfer
//	@Produce		json
//	@Success		200	{object}	models.LibraryExport
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.Export(r.Context())
	if err != nil {
		writeError(w, err, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// ExportItems handles POST /api/export/items.
//
//	@Summary		Export a subset of items with their categories
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportItemsRequest	true	"Item ids to export"
//	@Success		200		{object}	models.LibraryExport
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export/items [post]
func (h *Handler) ExportItems(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req ExportItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	doc, err := h.svc.ExportItems(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err, "export items failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Import handles POST /api/import.
//
//	@Summary		Import an export document
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			merge	query		bool					false	"Merge instead of replace"
//	@Param			body	body		models.LibraryExport	true	"Export document"
//	@Success		200		{object}	models.ImportResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var doc models.LibraryExport
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	merge := r.URL.Query().Get("merge") == "true"
	res, err := h.svc.Import(r.Context(), &doc, merge)
	if err != nil {
		writeError(w, err, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CreateBackup handles POST /api/backups.
//
//	@Summary		Snapshot the library into a backup file
//	@Tags			backups
//	@Produce		json
//	@Success		201	{object}	BackupResponse
//	@Security		BearerAuth
//	@Router			/backups [post]
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	name, err := h.svc.CreateBackup(r.Context())
	if err != nil {
		writeError(w, err, "backup failed")
		return
	}
	writeJSON(w, http.StatusCreated, BackupResponse{Name: name})
}

// ListBackups handles GET /api/backups.
//
//	@Summary		List backup snapshots, newest first
//	@Tags			backups
//	@Produce		json
//	@Success		200	{object}	BackupListResponse
//	@Security		BearerAuth
//	@Router			/backups [get]
func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListBackups(r.Context())
	if err != nil {
		writeError(w, err, "list backups failed")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, BackupListResponse{Backups: names})
}

// RestoreBackup handles POST /api/backups/{name}/restore.
//
//	@Summary		Restore the library from a backup snapshot
//	@Tags			backups
//	@Produce		json
//	@Param			name	path		string	true	"Backup file name"
//	@Success		200		{object}	models.ImportResult
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backups/{name}/restore [post]
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RestoreBackup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err, "restore failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reload handles POST /api/reload.
//
//	@Summary		Reload the library from disk
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Security		BearerAuth
//	@Router			/reload [post]
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reload(r.Context()); err != nil {
		writeError(w, err, "reload failed")
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{State: string(h.svc.State())})
}

// State handles GET /api/state.
//
//	@Summary		Report the store lifecycle state
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	StateResponse
//	@Security		BearerAuth
//	@Router			/state [get]
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{State: string(h.svc.State())}
	if err := h.svc.Err(); err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
