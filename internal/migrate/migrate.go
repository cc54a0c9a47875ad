// Package migrate folds the two legacy stored catalogues into unified
// library records. It runs at most once per store lifetime, guarded by the
// persisted migration flag; re-running is harmless because migrated ids are
// derived deterministically from the legacy records.
package migrate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/0Janvier/citadelle-library/internal/checksum"
	"github.com/0Janvier/citadelle-library/internal/models"
)

// Result carries the records produced by a migration run together with the
// per-record errors. A failing record never aborts the run.
type Result struct {
	Items []models.LibraryItem
	models.MigrationResult
}

// Run converts the legacy catalogues into unified items. existingIDs holds
// the ids already present in the store; records whose derived id is in the
// set are skipped, which makes a repeated run a no-op.
func Run(clauses []models.LegacyClause, snippets []models.LegacySnippet, existingIDs map[string]struct{}, now time.Time) Result {
	var res Result
	res.Errors = []string{}
	seen := make(map[string]struct{}, len(existingIDs))
	for id := range existingIDs {
		seen[id] = struct{}{}
	}

	for _, clause := range clauses {
		item, err := convertClause(clause, now)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("clause %q: %v", clause.Titre, err))
			continue
		}
		if _, ok := seen[item.ID]; ok {
			res.ItemsSkipped++
			continue
		}
		seen[item.ID] = struct{}{}
		res.Items = append(res.Items, *item)
		res.ItemsMigrated++
	}

	for _, snippet := range snippets {
		item, err := convertSnippet(snippet, now)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("snippet %q: %v", snippet.Nom, err))
			continue
		}
		if _, ok := seen[item.ID]; ok {
			res.ItemsSkipped++
			continue
		}
		seen[item.ID] = struct{}{}
		res.Items = append(res.Items, *item)
		res.ItemsMigrated++
	}

	return res
}

// deriveID builds a stable id from the legacy record identity, so the same
// legacy record always maps to the same unified id.
func deriveID(t models.ItemType, parts ...string) string {
	return string(t) + "-" + checksum.Fingerprint(parts...)
}

func convertClause(clause models.LegacyClause, now time.Time) (*models.LibraryItem, error) {
	if strings.TrimSpace(clause.Titre) == "" {
		return nil, fmt.Errorf("missing titre")
	}
	if len(clause.Contenu) == 0 {
		return nil, fmt.Errorf("missing contenu")
	}

	categoryID, ok := models.LegacyDomainCategories[clause.Domaine]
	if !ok {
		categoryID = models.CategoryClauseFallback
	}

	source := models.SourceCustom
	if clause.IsBuiltin {
		source = models.SourceBuiltin
	}

	item := &models.LibraryItem{
		ID:               deriveID(models.TypeClause, clause.ID, clause.Titre),
		Type:             models.TypeClause,
		Version:          1,
		Title:            clause.Titre,
		Description:      clause.Description,
		Content:          append(json.RawMessage(nil), clause.Contenu...),
		ContentFormat:    models.FormatRichText,
		CategoryID:       categoryID,
		Tags:             append([]string(nil), clause.Tags...),
		Variables:        nil,
		LegacyDomaine:    clause.Domaine,
		LegacyClauseType: clause.Type,
		Source:           source,
		IsFavorite:       clause.Favoris,
		UsageCount:       clause.UsageCount,
		CreatedAt:        parseLegacyTime(clause.CreatedAt, now),
		UpdatedAt:        parseLegacyTime(clause.UpdatedAt, now),
	}
	if clause.TexteRecherche != "" {
		item.SearchText = strings.ToLower(clause.TexteRecherche)
	} else {
		item.SearchText = models.ComputeSearchText(item)
	}
	return item, nil
}

func convertSnippet(snippet models.LegacySnippet, now time.Time) (*models.LibraryItem, error) {
	if strings.TrimSpace(snippet.Nom) == "" {
		return nil, fmt.Errorf("missing nom")
	}
	if snippet.Contenu == "" {
		return nil, fmt.Errorf("missing contenu")
	}

	categoryID, ok := models.LegacySnippetCategories[snippet.Category]
	if !ok {
		categoryID = models.CategorySnippetFallback
	}

	variables := append([]string(nil), snippet.Variables...)
	if len(variables) == 0 {
		variables = models.ExtractVariables(snippet.Contenu)
	}

	shortcut := ""
	if snippet.Raccourci != "" && models.IsValidShortcut(snippet.Raccourci) {
		shortcut = models.NormalizeShortcut(snippet.Raccourci)
	}

	source := models.SourceCustom
	if snippet.IsBuiltin {
		source = models.SourceBuiltin
	}

	item := &models.LibraryItem{
		ID:                    deriveID(models.TypeSnippet, snippet.ID, snippet.Nom, snippet.Raccourci),
		Type:                  models.TypeSnippet,
		Version:               1,
		Title:                 snippet.Nom,
		Description:           snippet.Description,
		Content:               models.TextContent(snippet.Contenu),
		ContentFormat:         models.FormatPlainText,
		CategoryID:            categoryID,
		Shortcut:              shortcut,
		Variables:             variables,
		LegacySnippetCategory: snippet.Category,
		Source:                source,
		UsageCount:            snippet.UsageCount,
		CreatedAt:             parseLegacyTime(snippet.CreatedAt, now),
		UpdatedAt:             parseLegacyTime(snippet.UpdatedAt, now),
	}
	item.SearchText = models.ComputeSearchText(item)
	return item, nil
}

// parseLegacyTime parses a legacy timestamp string, falling back to now: a
// broken date is not worth losing the record over.
func parseLegacyTime(s string, now time.Time) time.Time {
	if s == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return now
}
