// Package legacy re-exposes the unified library through the shape of the
// retired snippet catalogue, so older surfaces keep working against the new
// store without a rewrite.
package legacy

import (
	"context"

	"github.com/0Janvier/citadelle-library/internal/library"
	"github.com/0Janvier/citadelle-library/internal/models"
)

// Snippet is the record shape of the retired catalogue. Field names match
// the old on-disk schema.
type Snippet struct {
	ID        string   `json:"id"`
	Nom       string   `json:"nom"`
	Raccourci string   `json:"raccourci"`
	Contenu   string   `json:"contenu"`
	Category  string   `json:"category"`
	Variables []string `json:"variables"`
	IsBuiltin bool     `json:"isBuiltin"`
}

// Adapter translates between the unified store and the retired snippet
// interface. It holds no state of its own.
type Adapter struct {
	svc *library.Service
}

func NewAdapter(svc *library.Service) *Adapter {
	return &Adapter{svc: svc}
}

// Snippets returns every snippet-typed item in the retired shape, in the
// store's deterministic order.
func (a *Adapter) Snippets() []Snippet {
	items := a.svc.ListItems(models.Filters{
		Type:    models.TypeSnippet,
		SortBy:  models.SortByName,
		SortDir: models.SortAsc,
	})
	out := make([]Snippet, 0, len(items))
	for i := range items {
		out = append(out, toSnippet(&items[i]))
	}
	return out
}

// ByShortcut resolves a raw shortcut to a retired-shape snippet.
func (a *Adapter) ByShortcut(raw string) (Snippet, bool) {
	item := a.svc.FindByShortcut(raw)
	if item == nil || item.Type != models.TypeSnippet {
		return Snippet{}, false
	}
	return toSnippet(item), true
}

// SuggestionsFor returns retired-shape suggestions for a partial query.
func (a *Adapter) SuggestionsFor(query string) []Snippet {
	out := make([]Snippet, 0)
	for _, item := range a.svc.Suggestions(query) {
		if item.Type != models.TypeSnippet {
			continue
		}
		out = append(out, toSnippet(&item))
	}
	return out
}

// RecordUsage forwards a usage tick to the unified store.
func (a *Adapter) RecordUsage(ctx context.Context, id string) error {
	_, err := a.svc.IncrementUsage(ctx, id)
	return err
}

// toSnippet maps a unified item onto the retired record shape. The old
// category enum is recovered from the migration provenance when present,
// falling back to the custom bucket.
func toSnippet(item *models.LibraryItem) Snippet {
	category := item.LegacySnippetCategory
	if category == "" {
		category = "custom"
	}
	return Snippet{
		ID:        item.ID,
		Nom:       item.Title,
		Raccourci: item.Shortcut,
		Contenu:   item.ContentText(),
		Category:  category,
		Variables: item.Variables,
		IsBuiltin: item.Source == models.SourceBuiltin || item.Source == models.SourceModifiedBuiltin,
	}
}
