package library

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/0Janvier/citadelle-library/internal/models"
)

// fold lowercases s and strips combining marks, so that "résiliation" and
// "RESILIATION" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// applyFilters narrows and orders a snapshot of items. With a query present
// the result is relevance-ranked; without one it follows the sort option.
func applyFilters(items []models.LibraryItem, f models.Filters) []models.LibraryItem {
	out := make([]models.LibraryItem, 0, len(items))
	query := fold(strings.TrimSpace(f.Query))
	for _, item := range items {
		if f.Type != "" && item.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && item.CategoryID != f.CategoryID {
			continue
		}
		if f.FavoritesOnly && !item.IsFavorite {
			continue
		}
		if query != "" && matchRank(&item, query) < 0 {
			continue
		}
		out = append(out, item)
	}
	if query != "" {
		sortByRelevance(out, query)
	} else {
		sortByOption(out, f.SortBy, f.SortDir)
	}
	return out
}

// matchRank scores an item against a folded query. Lower is better; -1 means
// no match.
func matchRank(item *models.LibraryItem, query string) int {
	if item.Shortcut != "" {
		shortcut := fold(item.Shortcut)
		if shortcut == query || shortcut == "/"+query {
			return 0
		}
		if strings.HasPrefix(shortcut, query) || strings.HasPrefix(shortcut, "/"+query) {
			return 1
		}
	}
	title := fold(item.Title)
	if strings.HasPrefix(title, query) {
		return 2
	}
	if strings.Contains(title, query) {
		return 3
	}
	if strings.Contains(fold(item.SearchText), query) {
		return 4
	}
	for _, tag := range item.Tags {
		if strings.Contains(fold(tag), query) {
			return 4
		}
	}
	return -1
}

func sortByRelevance(items []models.LibraryItem, query string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		ra, rb := matchRank(a, query), matchRank(b, query)
		if ra != rb {
			return ra < rb
		}
		if a.UsageCount != b.UsageCount {
			return a.UsageCount > b.UsageCount
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}

func sortByOption(items []models.LibraryItem, by models.SortOption, dir models.SortDirection) {
	desc := dir == models.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		var less, equal bool
		switch by {
		case models.SortByUsage:
			less, equal = a.UsageCount < b.UsageCount, a.UsageCount == b.UsageCount
		case models.SortByCreated:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		case models.SortByUpdated:
			less, equal = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		default:
			ta, tb := fold(a.Title), fold(b.Title)
			less, equal = ta < tb, ta == tb
		}
		if equal {
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})
}

// suggestions returns up to limit items matching a partial query typed in an
// editor, best match first. Snippets invoked by shortcut outrank everything
// else.
func suggestions(items []models.LibraryItem, query string, limit int) []models.LibraryItem {
	q := fold(strings.TrimSpace(strings.TrimPrefix(query, "/")))
	if q == "" {
		return nil
	}
	matched := make([]models.LibraryItem, 0, limit)
	for _, item := range items {
		if matchRank(&item, q) >= 0 {
			matched = append(matched, item)
		}
	}
	sortByRelevance(matched, q)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
