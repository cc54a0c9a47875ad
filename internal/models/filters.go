package models

// SortOption selects the field items are ordered by when no search query is
// active.
type SortOption string

const (
	SortByName    SortOption = "name"
	SortByUsage   SortOption = "usage"
	SortByCreated SortOption = "created"
	SortByUpdated SortOption = "updated"
)

// SortDirection is the sort order.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filters narrows and orders library listings. Zero values mean "no
// constraint": an empty Type matches both item types, an empty CategoryID
// matches every category.
type Filters struct {
	Query         string        `json:"query"`
	Type          ItemType      `json:"type,omitempty"`
	CategoryID    string        `json:"categoryId,omitempty"`
	FavoritesOnly bool          `json:"favoritesOnly"`
	SortBy        SortOption    `json:"sortBy"`
	SortDir       SortDirection `json:"sortDir"`
}

// DefaultFilters returns the initial filter state: everything, name
// ascending.
func DefaultFilters() Filters {
	return Filters{SortBy: SortByName, SortDir: SortAsc}
}
