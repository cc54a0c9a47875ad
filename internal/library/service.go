// Package library implements the unified clause and snippet store: an
// in-memory authoritative cache loaded from the persistence layer, with
// CRUD, search, usage tracking, one-shot legacy migration and export/import
// on top.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/0Janvier/citadelle-library/internal/apperr"
	"github.com/0Janvier/citadelle-library/internal/migrate"
	"github.com/0Janvier/citadelle-library/internal/models"
	"github.com/0Janvier/citadelle-library/internal/persist"
)

// State is the lifecycle phase of the store.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateError         State = "error"
)

// Event describes a change observers can react to.
type Event struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

const (
	EventItemCreated     = "item.created"
	EventItemUpdated     = "item.updated"
	EventItemDeleted     = "item.deleted"
	EventCategoryCreated = "category.created"
	EventCategoryUpdated = "category.updated"
	EventCategoryDeleted = "category.deleted"
	EventLibraryReloaded = "library.reloaded"
	EventLibraryImported = "library.imported"
)

// Notifier receives store events. Called outside the store lock, after the
// change has been persisted.
type Notifier func(Event)

// Service is the orchestrating library store. All reads are served from the
// in-memory cache; every mutation is mirrored to persistence before it
// returns.
type Service struct {
	persist *persist.Store
	logger  *slog.Logger
	notify  Notifier

	load singleflight.Group

	// Bumped on every persist. Lets the watcher tell the store's own disk
	// writes apart from external ones.
	gen atomic.Uint64

	mu       sync.RWMutex
	state    State
	lastErr  error
	items    map[string]*models.LibraryItem
	cats     map[string]*models.LibraryCategory
	meta     models.LibraryMetadata
	filters  models.Filters
	builtins map[string]models.LibraryItem
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers the observer callback for store events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// New builds an uninitialized store over the given persistence layer.
func New(p *persist.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		persist:  p,
		logger:   logger,
		state:    StateUninitialized,
		items:    make(map[string]*models.LibraryItem),
		cats:     make(map[string]*models.LibraryCategory),
		filters:  models.DefaultFilters(),
		builtins: defaultItems(time.Now().UTC()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the library from persistence, running the one-shot legacy
// migration on first launch. Idempotent: once ready it is a no-op, and
// concurrent callers share a single load.
func (s *Service) Initialize(ctx context.Context) error {
	if s.State() == StateReady {
		return nil
	}
	_, err, _ := s.load.Do("load", func() (any, error) {
		return nil, s.reload(ctx)
	})
	return err
}

// Reload discards the cache and re-reads the record files. It is the escape
// hatch out of the error state and the reaction to external file edits.
func (s *Service) Reload(ctx context.Context) error {
	_, err, _ := s.load.Do("load", func() (any, error) {
		return nil, s.reload(ctx)
	})
	return err
}

func (s *Service) reload(ctx context.Context) error {
	s.setState(StateLoading, nil)
	now := time.Now().UTC()

	items, corrupt, err := loadRecords(s.persist.LoadItems)
	if err != nil {
		return s.fail(err)
	}
	cats, corruptCats, err := loadRecords(s.persist.LoadCategories)
	if err != nil {
		return s.fail(err)
	}
	meta, corruptMeta, err := loadMetadata(s.persist.LoadMetadata, now)
	if err != nil {
		return s.fail(err)
	}
	corrupt = corrupt || corruptCats || corruptMeta

	itemMap := make(map[string]*models.LibraryItem, len(items))
	for i := range items {
		itemMap[items[i].ID] = &items[i]
	}
	catMap := make(map[string]*models.LibraryCategory, len(cats))
	for i := range cats {
		catMap[cats[i].ID] = &cats[i]
	}

	// Builtin default categories are merged on every load so that upgrades
	// introducing new buckets repair older libraries.
	seededCats := 0
	for _, def := range models.DefaultCategories(now) {
		if _, ok := catMap[def.ID]; !ok {
			cp := def
			catMap[def.ID] = &cp
			seededCats++
		}
	}

	if corrupt {
		// Keep the damaged files on disk untouched and serve the builtin
		// defaults from memory. Reads stay serviceable, mutations are
		// rejected until a reload succeeds against repaired files.
		for _, def := range s.builtins {
			if _, ok := itemMap[def.ID]; !ok {
				cp := def
				itemMap[def.ID] = &cp
			}
		}
		loadErr := fmt.Errorf("library records: %w", apperr.ErrCorruptData)
		s.mu.Lock()
		s.items = itemMap
		s.cats = catMap
		s.meta = *meta
		s.state = StateError
		s.lastErr = loadErr
		s.mu.Unlock()
		s.logger.Error("library load found corrupt records, serving builtin defaults")
		return loadErr
	}

	migrated := false
	if !meta.MigrationCompleted {
		result := s.runMigration(itemMap, now)
		meta.MigrationCompleted = true
		meta.MigratedFrom = "legacy-catalogues"
		migrated = true
		s.logger.Info("legacy migration completed",
			"migrated", result.ItemsMigrated,
			"skipped", result.ItemsSkipped,
			"errors", len(result.Errors))
	}

	s.mu.Lock()
	s.items = itemMap
	s.cats = catMap
	s.meta = *meta
	s.state = StateReady
	s.lastErr = nil
	var persistErr error
	if migrated || seededCats > 0 {
		persistErr = s.persistAll()
	}
	s.mu.Unlock()
	if persistErr != nil {
		return persistErr
	}

	s.publish(Event{Type: EventLibraryReloaded})
	s.logger.Info("library ready", "items", len(itemMap), "categories", len(catMap))
	return nil
}

// runMigration folds the legacy clause and snippet dumps into the item map
// and seeds builtin defaults for whichever catalogue was absent.
func (s *Service) runMigration(itemMap map[string]*models.LibraryItem, now time.Time) migrate.Result {
	clauses, err := s.persist.LoadLegacyClauses()
	if err != nil {
		s.logger.Warn("legacy clause dump unreadable, skipping", "error", err)
		clauses = nil
	}
	snippets, err := s.persist.LoadLegacySnippets()
	if err != nil {
		s.logger.Warn("legacy snippet dump unreadable, skipping", "error", err)
		snippets = nil
	}

	existing := make(map[string]struct{}, len(itemMap))
	for id := range itemMap {
		existing[id] = struct{}{}
	}
	result := migrate.Run(clauses, snippets, existing, now)
	for i := range result.Items {
		itemMap[result.Items[i].ID] = &result.Items[i]
	}

	if len(clauses) == 0 {
		for _, def := range defaultClauses(now) {
			if _, ok := itemMap[def.ID]; !ok {
				cp := def
				itemMap[def.ID] = &cp
			}
		}
	}
	if len(snippets) == 0 {
		for _, def := range defaultSnippets(now) {
			if _, ok := itemMap[def.ID]; !ok {
				cp := def
				itemMap[def.ID] = &cp
			}
		}
	}
	return result
}

func loadRecords[T any](load func() ([]T, error)) (records []T, corrupt bool, err error) {
	records, err = load()
	switch {
	case err == nil:
		return records, false, nil
	case errors.Is(err, apperr.ErrNotFound):
		return nil, false, nil
	case errors.Is(err, apperr.ErrCorruptData):
		return nil, true, nil
	default:
		return nil, false, err
	}
}

func loadMetadata(load func() (*models.LibraryMetadata, error), now time.Time) (*models.LibraryMetadata, bool, error) {
	meta, err := load()
	fresh := &models.LibraryMetadata{
		SchemaVersion: models.SchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch {
	case err == nil:
		return meta, false, nil
	case errors.Is(err, apperr.ErrNotFound):
		return fresh, false, nil
	case errors.Is(err, apperr.ErrCorruptData):
		return fresh, true, nil
	default:
		return nil, false, err
	}
}

func (s *Service) fail(err error) error {
	s.setState(StateError, err)
	s.logger.Error("library load failed", "error", err)
	return err
}

func (s *Service) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
}

// State returns the current lifecycle phase.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the error that put the store into the error state, if any.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Service) requireReady() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateReady {
		if s.lastErr != nil {
			return fmt.Errorf("library store is %s: %w", s.state, s.lastErr)
		}
		return fmt.Errorf("library store is %s", s.state)
	}
	return nil
}

func (s *Service) publish(e Event) {
	if s.notify != nil {
		s.notify(e)
	}
}

// persistAll mirrors the cache to the record files. Callers hold the write
// lock. A write failure flips the store into the error state: the cache and
// the files may now disagree, and a reload restores consistency from disk.
func (s *Service) persistAll() error {
	items := make([]models.LibraryItem, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	cats := make([]models.LibraryCategory, 0, len(s.cats))
	for _, c := range s.cats {
		cats = append(cats, *c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].ID < cats[j].ID
	})

	s.meta.ItemCount = len(items)
	s.meta.CategoryCount = len(cats)
	s.meta.UpdatedAt = time.Now().UTC()

	if err := s.persist.SaveItems(items); err != nil {
		return s.persistFailed(err)
	}
	if err := s.persist.SaveCategories(cats); err != nil {
		return s.persistFailed(err)
	}
	if err := s.persist.SaveMetadata(&s.meta); err != nil {
		return s.persistFailed(err)
	}
	s.gen.Add(1)
	return nil
}

// WriteGeneration counts the store's completed disk writes.
func (s *Service) WriteGeneration() uint64 {
	return s.gen.Load()
}

func (s *Service) persistFailed(err error) error {
	s.state = StateError
	s.lastErr = err
	s.logger.Error("library persist failed", "error", err)
	return fmt.Errorf("persist library: %w", err)
}

// shortcutTaken reports whether the normalized shortcut is already held by a
// different item. Comparison is case-insensitive; stored shortcuts are
// already normalized to lowercase.
func (s *Service) shortcutTaken(shortcut, excludeID string) bool {
	for id, it := range s.items {
		if id != excludeID && it.Shortcut == shortcut {
			return true
		}
	}
	return false
}

// GetItem returns a copy of the item with the given id.
func (s *Service) GetItem(id string) (*models.LibraryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	return it.Clone(), nil
}

// CreateItem validates the draft, assigns identity and derived fields and
// persists the new item.
func (s *Service) CreateItem(ctx context.Context, draft models.ItemDraft) (*models.LibraryItem, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	s.mu.Lock()
	if _, ok := s.cats[draft.CategoryID]; !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, draft.CategoryID)
	}
	shortcut := ""
	if draft.Shortcut != "" {
		shortcut = models.NormalizeShortcut(draft.Shortcut)
		if s.shortcutTaken(shortcut, "") {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: shortcut %q already in use", apperr.ErrValidation, shortcut)
		}
	}

	now := time.Now().UTC()
	source := draft.Source
	if source == "" {
		source = models.SourceCustom
	}
	item := &models.LibraryItem{
		ID:            models.NewItemID(draft.Type),
		Type:          draft.Type,
		Version:       1,
		Title:         draft.Title,
		Description:   draft.Description,
		Content:       draft.Content,
		ContentFormat: draft.ContentFormat,
		CategoryID:    draft.CategoryID,
		Tags:          append([]string(nil), draft.Tags...),
		Shortcut:      shortcut,
		Source:        source,
		IsFavorite:    draft.IsFavorite,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	item.Variables = models.ExtractVariables(item.ContentText())
	item.SearchText = models.ComputeSearchText(item)
	s.items[item.ID] = item
	err := s.persistAll()
	out := item.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventItemCreated, ID: out.ID})
	return out, nil
}

// UpdateItem applies a partial update. Any applied change bumps the version
// and recomputes the derived fields; editing a builtin reclassifies it as
// modified-builtin while keeping its id.
func (s *Service) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.LibraryItem, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}

	changed := false
	if patch.Title != nil && *patch.Title != item.Title {
		item.Title = *patch.Title
		changed = true
	}
	if patch.Description != nil && *patch.Description != item.Description {
		item.Description = *patch.Description
		changed = true
	}
	if patch.Content != nil {
		item.Content = append([]byte(nil), *patch.Content...)
		changed = true
	}
	if patch.ContentFormat != nil && *patch.ContentFormat != item.ContentFormat {
		item.ContentFormat = *patch.ContentFormat
		changed = true
	}
	if patch.CategoryID != nil && *patch.CategoryID != item.CategoryID {
		if _, ok := s.cats[*patch.CategoryID]; !ok {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, *patch.CategoryID)
		}
		item.CategoryID = *patch.CategoryID
		changed = true
	}
	if patch.Tags != nil {
		item.Tags = append([]string(nil), (*patch.Tags)...)
		changed = true
	}
	if patch.Shortcut != nil {
		shortcut := ""
		if *patch.Shortcut != "" {
			if item.Type != models.TypeSnippet {
				s.mu.Unlock()
				return nil, fmt.Errorf("%w: only snippets may carry a shortcut", apperr.ErrValidation)
			}
			shortcut = models.NormalizeShortcut(*patch.Shortcut)
			if s.shortcutTaken(shortcut, item.ID) {
				s.mu.Unlock()
				return nil, fmt.Errorf("%w: shortcut %q already in use", apperr.ErrValidation, shortcut)
			}
		}
		if shortcut != item.Shortcut {
			item.Shortcut = shortcut
			changed = true
		}
	}

	if !changed {
		out := item.Clone()
		s.mu.Unlock()
		return out, nil
	}

	if item.Source == models.SourceBuiltin {
		item.Source = models.SourceModifiedBuiltin
		item.BuiltinID = item.ID
	}
	item.Variables = models.ExtractVariables(item.ContentText())
	item.SearchText = models.ComputeSearchText(item)
	item.Version++
	item.UpdatedAt = time.Now().UTC()
	err := s.persistAll()
	out := item.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventItemUpdated, ID: out.ID})
	return out, nil
}

// DeleteItem removes an item. Pristine builtins cannot be deleted; a
// modified builtin can, which removes it entirely.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	if item.Source == models.SourceBuiltin {
		s.mu.Unlock()
		return fmt.Errorf("builtin item %q: %w", id, apperr.ErrConflict)
	}
	delete(s.items, id)
	err := s.persistAll()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(Event{Type: EventItemDeleted, ID: id})
	return nil
}

// DuplicateItem copies an item under a fresh id with a derived title and a
// derived, conflict-free shortcut. The copy is always a custom item with
// zeroed usage.
func (s *Service) DuplicateItem(ctx context.Context, id string) (*models.LibraryItem, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	src, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	now := time.Now().UTC()
	cp := src.Clone()
	cp.ID = models.NewItemID(src.Type)
	cp.Title = src.Title + " (copie)"
	cp.Version = 1
	cp.Source = models.SourceCustom
	cp.BuiltinID = ""
	cp.IsFavorite = false
	cp.UsageCount = 0
	cp.LastUsedAt = nil
	cp.CreatedAt = now
	cp.UpdatedAt = now
	if src.Shortcut != "" {
		shortcut := models.NormalizeShortcut(src.Shortcut + "-copie")
		if !models.IsValidShortcut(shortcut) || s.shortcutTaken(shortcut, "") {
			shortcut = ""
		}
		cp.Shortcut = shortcut
	}
	cp.SearchText = models.ComputeSearchText(cp)
	s.items[cp.ID] = cp
	err := s.persistAll()
	out := cp.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventItemCreated, ID: out.ID})
	return out, nil
}

// ResetToBuiltin restores a modified builtin to its pristine shipped form,
// keeping the user's usage count and favorite flag.
func (s *Service) ResetToBuiltin(ctx context.Context, id string) (*models.LibraryItem, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	if item.Source != models.SourceModifiedBuiltin {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: item %q is not a modified builtin", apperr.ErrConflict, id)
	}
	pristine, ok := s.builtins[item.ID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("builtin definition for %q: %w", id, apperr.ErrNotFound)
	}

	item.Title = pristine.Title
	item.Description = pristine.Description
	item.Content = append([]byte(nil), pristine.Content...)
	item.ContentFormat = pristine.ContentFormat
	item.CategoryID = pristine.CategoryID
	item.Tags = append([]string(nil), pristine.Tags...)
	item.Shortcut = pristine.Shortcut
	item.Source = models.SourceBuiltin
	item.BuiltinID = ""
	item.Variables = models.ExtractVariables(item.ContentText())
	item.SearchText = models.ComputeSearchText(item)
	item.Version++
	item.UpdatedAt = time.Now().UTC()
	err := s.persistAll()
	out := item.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventItemUpdated, ID: out.ID})
	return out, nil
}

// ToggleFavorite flips the favorite flag. It is user metadata, not content:
// neither the version nor updatedAt moves.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (*models.LibraryItem, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	item.IsFavorite = !item.IsFavorite
	err := s.persistAll()
	out := item.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventItemUpdated, ID: out.ID})
	return out, nil
}

// IncrementUsage bumps the usage counter and stamps lastUsedAt. Like the
// favorite flag it leaves version and updatedAt alone.
func (s *Service) IncrementUsage(ctx context.Context, id string) (*models.LibraryItem, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
	}
	item.UsageCount++
	now := time.Now().UTC()
	item.LastUsedAt = &now
	err := s.persistAll()
	out := item.Clone()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCategory returns a copy of the category with the given id.
func (s *Service) GetCategory(id string) (*models.LibraryCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cats[id]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", id, apperr.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// CreateCategory validates the draft and persists a new custom category.
func (s *Service) CreateCategory(ctx context.Context, draft models.CategoryDraft) (*models.LibraryCategory, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	now := time.Now().UTC()
	cat := &models.LibraryCategory{
		ID:          models.NewCategoryID(),
		Name:        draft.Name,
		Description: draft.Description,
		Icon:        draft.Icon,
		Color:       draft.Color,
		ParentID:    draft.ParentID,
		Order:       draft.Order,
		ItemType:    draft.ItemType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.cats[cat.ID] = cat
	err := s.persistAll()
	cp := *cat
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventCategoryCreated, ID: cp.ID})
	return &cp, nil
}

// UpdateCategory applies a partial update to a category. Builtin categories
// may be renamed or restyled; only deletion is protected.
func (s *Service) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) (*models.LibraryCategory, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	s.mu.Lock()
	cat, ok := s.cats[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("category %q: %w", id, apperr.ErrNotFound)
	}
	if patch.Name != nil {
		cat.Name = *patch.Name
	}
	if patch.Description != nil {
		cat.Description = *patch.Description
	}
	if patch.Icon != nil {
		cat.Icon = *patch.Icon
	}
	if patch.Color != nil {
		cat.Color = *patch.Color
	}
	if patch.ParentID != nil {
		cat.ParentID = *patch.ParentID
	}
	if patch.Order != nil {
		cat.Order = *patch.Order
	}
	if patch.ItemType != nil {
		cat.ItemType = *patch.ItemType
	}
	cat.UpdatedAt = time.Now().UTC()
	err := s.persistAll()
	cp := *cat
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventCategoryUpdated, ID: cp.ID})
	return &cp, nil
}

// DeleteCategory removes a custom category. Items referencing it keep their
// categoryId; listings surface them as uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.requireReady(); err != nil {
		return err
	}
	s.mu.Lock()
	cat, ok := s.cats[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("category %q: %w", id, apperr.ErrNotFound)
	}
	if cat.IsBuiltin {
		s.mu.Unlock()
		return fmt.Errorf("builtin category %q: %w", id, apperr.ErrConflict)
	}
	delete(s.cats, id)
	err := s.persistAll()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.publish(Event{Type: EventCategoryDeleted, ID: id})
	return nil
}

// Items returns a copy of every item, ordered by title then id.
func (s *Service) Items() []models.LibraryItem {
	s.mu.RLock()
	out := make([]models.LibraryItem, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, *it.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		ti, tj := fold(out[i].Title), fold(out[j].Title)
		if ti != tj {
			return ti < tj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Categories returns a copy of every category, ordered by order then id.
func (s *Service) Categories() []models.LibraryCategory {
	s.mu.RLock()
	out := make([]models.LibraryCategory, 0, len(s.cats))
	for _, c := range s.cats {
		out = append(out, *c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListItems returns the items matching the given filters, ranked by
// relevance when a query is present and sorted per the sort option
// otherwise.
func (s *Service) ListItems(f models.Filters) []models.LibraryItem {
	s.mu.RLock()
	snapshot := make([]models.LibraryItem, 0, len(s.items))
	for _, it := range s.items {
		snapshot = append(snapshot, *it.Clone())
	}
	s.mu.RUnlock()
	return applyFilters(snapshot, f)
}

// ItemsByCategory returns the items filed under one category, name order.
func (s *Service) ItemsByCategory(categoryID string) []models.LibraryItem {
	return s.ListItems(models.Filters{CategoryID: categoryID})
}

// ItemsByType returns the items of one type, name order.
func (s *Service) ItemsByType(t models.ItemType) []models.LibraryItem {
	return s.ListItems(models.Filters{Type: t})
}

// FilteredItems applies the store's current filter state.
func (s *Service) FilteredItems() []models.LibraryItem {
	return s.ListItems(s.Filters())
}

// SetFilters replaces the store's filter state.
func (s *Service) SetFilters(f models.Filters) {
	if f.SortBy == "" {
		f.SortBy = models.SortByName
	}
	if f.SortDir == "" {
		f.SortDir = models.SortAsc
	}
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
}

// Filters returns the store's current filter state.
func (s *Service) Filters() models.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Suggestions returns up to ten items matching a partial query typed in an
// editor, best match first.
func (s *Service) Suggestions(query string) []models.LibraryItem {
	s.mu.RLock()
	snapshot := make([]models.LibraryItem, 0, len(s.items))
	for _, it := range s.items {
		snapshot = append(snapshot, *it.Clone())
	}
	s.mu.RUnlock()
	return suggestions(snapshot, query, 10)
}

// FindByShortcut resolves a raw shortcut string, normalizing it first, to
// the snippet holding it. Returns nil when nothing matches.
func (s *Service) FindByShortcut(raw string) *models.LibraryItem {
	shortcut := models.NormalizeShortcut(raw)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.Shortcut != "" && it.Shortcut == shortcut {
			return it.Clone()
		}
	}
	return nil
}

// AllShortcuts returns every assigned shortcut, sorted.
func (s *Service) AllShortcuts() []string {
	s.mu.RLock()
	out := make([]string, 0)
	for _, it := range s.items {
		if it.Shortcut != "" {
			out = append(out, it.Shortcut)
		}
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Export serializes the whole library into a portable document.
func (s *Service) Export(ctx context.Context) (*models.LibraryExport, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	doc := &models.LibraryExport{
		FormatVersion: models.ExportFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Items:         s.Items(),
		Categories:    s.Categories(),
	}
	return doc, nil
}

// ExportItems serializes a chosen subset of items together with just the
// categories they reference.
func (s *Service) ExportItems(ctx context.Context, ids []string) (*models.LibraryExport, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	items := make([]models.LibraryItem, 0, len(ids))
	referenced := make(map[string]struct{})
	for _, id := range ids {
		it, ok := s.items[id]
		if !ok {
			s.mu.RUnlock()
			return nil, fmt.Errorf("item %q: %w", id, apperr.ErrNotFound)
		}
		items = append(items, *it.Clone())
		referenced[it.CategoryID] = struct{}{}
	}
	cats := make([]models.LibraryCategory, 0, len(referenced))
	for id := range referenced {
		if c, ok := s.cats[id]; ok {
			cats = append(cats, *c)
		}
	}
	s.mu.RUnlock()
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].ID < cats[j].ID
	})
	return &models.LibraryExport{
		FormatVersion: models.ExportFormatVersion,
		ExportedAt:    time.Now().UTC(),
		Items:         items,
		Categories:    cats,
	}, nil
}

// Import folds an export document into the library. With merge true,
// records whose id already exists are skipped; with merge false the
// document replaces every non-builtin record. Builtins are never
// overwritten either way, and each record fails independently.
func (s *Service) Import(ctx context.Context, doc *models.LibraryExport, merge bool) (*models.ImportResult, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty import document", apperr.ErrValidation)
	}
	res := &models.ImportResult{Errors: []string{}}
	now := time.Now().UTC()

	s.mu.Lock()
	if !merge {
		for id, it := range s.items {
			if it.Source != models.SourceBuiltin {
				delete(s.items, id)
			}
		}
		for id, c := range s.cats {
			if !c.IsBuiltin {
				delete(s.cats, id)
			}
		}
	}

	for _, cat := range doc.Categories {
		if cat.ID == "" {
			res.Errors = append(res.Errors, "category without id")
			continue
		}
		if _, ok := s.cats[cat.ID]; ok {
			continue
		}
		cp := cat
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		if cp.UpdatedAt.IsZero() {
			cp.UpdatedAt = now
		}
		s.cats[cp.ID] = &cp
		res.CategoriesImported++
	}

	for i := range doc.Items {
		s.importItem(&doc.Items[i], res, now)
	}

	err := s.persistAll()
	s.mu.Unlock()
	if err != nil {
		return res, err
	}
	s.publish(Event{Type: EventLibraryImported})
	s.logger.Info("library import finished",
		"imported", res.ItemsImported,
		"skipped", res.ItemsSkipped,
		"errors", len(res.Errors))
	return res, nil
}

// CreateBackup snapshots the whole library into a timestamped file under
// the backup directory and returns the snapshot name.
func (s *Service) CreateBackup(ctx context.Context) (string, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	name, err := s.persist.SaveBackup(doc)
	if err != nil {
		return "", err
	}
	s.logger.Info("library backup written", "name", name, "items", len(doc.Items))
	return name, nil
}

// ListBackups returns the available snapshot names, newest first.
func (s *Service) ListBackups(ctx context.Context) ([]string, error) {
	return s.persist.ListBackups()
}

// RestoreBackup replaces the library's non-builtin records with the named
// snapshot's contents.
func (s *Service) RestoreBackup(ctx context.Context, name string) (*models.ImportResult, error) {
	doc, err := s.persist.LoadBackup(name)
	if err != nil {
		return nil, err
	}
	res, err := s.Import(ctx, doc, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("library restored from backup", "name", name,
		"imported", res.ItemsImported, "errors", len(res.Errors))
	return res, nil
}

// importItem validates and inserts one incoming record. Caller holds the
// write lock.
func (s *Service) importItem(in *models.LibraryItem, res *models.ImportResult, now time.Time) {
	if in.ID == "" {
		res.Errors = append(res.Errors, "item without id")
		return
	}
	if _, exists := s.items[in.ID]; exists {
		res.ItemsSkipped++
		return
	}
	if in.Title == "" {
		res.Errors = append(res.Errors, fmt.Sprintf("item %s: missing title", in.ID))
		return
	}
	if in.Type != models.TypeClause && in.Type != models.TypeSnippet {
		res.Errors = append(res.Errors, fmt.Sprintf("item %s: invalid type %q", in.ID, in.Type))
		return
	}
	if len(in.Content) == 0 {
		res.Errors = append(res.Errors, fmt.Sprintf("item %s: missing content", in.ID))
		return
	}

	cp := in.Clone()
	if cp.ContentFormat == "" {
		cp.ContentFormat = models.FormatPlainText
	}
	if cp.Shortcut != "" {
		shortcut := models.NormalizeShortcut(cp.Shortcut)
		if !models.IsValidShortcut(shortcut) {
			res.Errors = append(res.Errors, fmt.Sprintf("item %s: invalid shortcut %q", cp.ID, cp.Shortcut))
			return
		}
		if s.shortcutTaken(shortcut, cp.ID) {
			res.Errors = append(res.Errors, fmt.Sprintf("item %s: shortcut %q already in use", cp.ID, shortcut))
			return
		}
		cp.Shortcut = shortcut
	}
	if cp.Source == "" {
		cp.Source = models.SourceImported
	}
	if cp.Version < 1 {
		cp.Version = 1
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = now
	}
	cp.Variables = models.ExtractVariables(cp.ContentText())
	cp.SearchText = models.ComputeSearchText(cp)
	s.items[cp.ID] = cp
	res.ItemsImported++
}
