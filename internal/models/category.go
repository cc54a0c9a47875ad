package models

import (
	"time"

	"github.com/google/uuid"
)

// LibraryCategory is a named, colored, optionally type-restricted grouping
// bucket for library items.
type LibraryCategory struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Color       string   `json:"color,omitempty"`
	ParentID    string   `json:"parentId,omitempty"`
	IsBuiltin   bool     `json:"isBuiltin"`
	Order       int      `json:"order"`
	ItemType    ItemType `json:"itemType,omitempty"` // empty: accepts both types

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCategoryID returns a fresh opaque category id.
func NewCategoryID() string {
	return "cat-" + uuid.NewString()
}

// Fallback buckets for legacy records whose key is missing from the lookup
// tables.
const (
	CategoryClauseFallback  = "cat-clause-autre"
	CategorySnippetFallback = "cat-custom"
)

// LegacyDomainCategories maps the free-text "domaine" key of the legacy
// clause catalogue to a unified category id.
var LegacyDomainCategories = map[string]string{
	"contrats":   "cat-contrats",
	"baux":       "cat-baux",
	"societes":   "cat-societes",
	"travail":    "cat-travail",
	"famille":    "cat-famille",
	"immobilier": "cat-immobilier",
	"commercial": "cat-commercial",
	"autre":      "cat-clause-autre",
}

// LegacySnippetCategories maps the category enum of the legacy snippet
// catalogue to a unified category id.
var LegacySnippetCategories = map[string]string{
	"contentieux": "cat-contentieux",
	"contractuel": "cat-contractuel",
	"courrier":    "cat-courrier",
	"general":     "cat-general",
	"custom":      "cat-custom",
}

// DefaultCategories returns the builtin category set, stamped with the given
// creation time.
func DefaultCategories(now time.Time) []LibraryCategory {
	defs := []LibraryCategory{
		// Clause buckets (legacy domains).
		{ID: "cat-contrats", Name: "Contrats", Icon: "file-text", Color: "#3b82f6", Order: 1, ItemType: TypeClause},
		{ID: "cat-baux", Name: "Baux", Icon: "home", Color: "#10b981", Order: 2, ItemType: TypeClause},
		{ID: "cat-societes", Name: "Sociétés", Icon: "briefcase", Color: "#8b5cf6", Order: 3, ItemType: TypeClause},
		{ID: "cat-travail", Name: "Droit du travail", Icon: "users", Color: "#f59e0b", Order: 4, ItemType: TypeClause},
		{ID: "cat-famille", Name: "Droit de la famille", Icon: "heart", Color: "#ec4899", Order: 5, ItemType: TypeClause},
		{ID: "cat-immobilier", Name: "Immobilier", Icon: "building", Color: "#06b6d4", Order: 6, ItemType: TypeClause},
		{ID: "cat-commercial", Name: "Commercial", Icon: "shopping-cart", Color: "#84cc16", Order: 7, ItemType: TypeClause},
		{ID: "cat-clause-autre", Name: "Autre (Clauses)", Icon: "folder", Color: "#6b7280", Order: 8, ItemType: TypeClause},

		// Snippet buckets (legacy snippet categories).
		{ID: "cat-contentieux", Name: "Contentieux", Icon: "gavel", Color: "#ef4444", Order: 10, ItemType: TypeSnippet},
		{ID: "cat-contractuel", Name: "Contractuel", Icon: "handshake", Color: "#3b82f6", Order: 11, ItemType: TypeSnippet},
		{ID: "cat-courrier", Name: "Courrier", Icon: "mail", Color: "#8b5cf6", Order: 12, ItemType: TypeSnippet},
		{ID: "cat-general", Name: "Général", Icon: "file", Color: "#6b7280", Order: 13, ItemType: TypeSnippet},

		// Open to both types.
		{ID: "cat-custom", Name: "Personnalisés", Icon: "star", Color: "#f59e0b", Order: 14},
	}
	for i := range defs {
		defs[i].IsBuiltin = true
		defs[i].CreatedAt = now
		defs[i].UpdatedAt = now
	}
	return defs
}
