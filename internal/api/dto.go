package api

import (
	"github.com/0Janvier/citadelle-library/internal/models"
)

// Item is the full item response type (aliased from the domain layer).
type Item = models.LibraryItem

// Category is the full category response type (aliased from the domain layer).
type Category = models.LibraryCategory

// ItemListResponse wraps filtered item listings.
type ItemListResponse struct {
	Items []Item `json:"items" validate:"required"`
	Total int    `json:"total" example:"42" validate:"required"`
}

// CategoryListResponse wraps category listings.
type CategoryListResponse struct {
	Categories []Category `json:"categories" validate:"required"`
}

// SuggestionsResponse wraps editor autocomplete suggestions.
type SuggestionsResponse struct {
	Suggestions []Item `json:"suggestions" validate:"required"`
}

// ShortcutsResponse wraps the assigned shortcut list.
type ShortcutsResponse struct {
	Shortcuts []string `json:"shortcuts" validate:"required"`
}

// ExportItemsRequest selects the subset of items for a partial export.
type ExportItemsRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

// BackupResponse names a freshly written backup snapshot.
type BackupResponse struct {
	Name string `json:"name" example:"backup-20260301-100000.000000000.json" validate:"required"`
}

// BackupListResponse wraps the snapshot listing, newest first.
type BackupListResponse struct {
	Backups []string `json:"backups" validate:"required"`
}

// StateResponse reports the store lifecycle phase.
type StateResponse struct {
	State string `json:"state" example:"ready" validate:"required"`
	Error string `json:"error,omitempty"`
}
