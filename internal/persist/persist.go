// Package persist stores the three library record families as structured
// JSON files through the host file bridge. It enforces no business rules.
package persist

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/0Janvier/citadelle-library/internal/apperr"
	"github.com/0Janvier/citadelle-library/internal/models"
	"github.com/0Janvier/citadelle-library/internal/storage"
)

// Record file names, relative to the library root.
const (
	ItemsFile      = "items.json"
	CategoriesFile = "categories.json"
	MetadataFile   = "metadata.json"
)

// BackupDir is the subdirectory holding snapshot files.
const BackupDir = "backups"

// Store reads and writes library records through a storage.Provider.
type Store struct {
	bridge storage.Provider

	// Locations of the two legacy catalogue dumps, relative to the library
	// root. Empty disables the corresponding load.
	legacyClausesFile  string
	legacySnippetsFile string
}

// New creates a Store over the given bridge. legacyClauses and
// legacySnippets are the dump file locations consumed once by the migration.
func New(bridge storage.Provider, legacyClauses, legacySnippets string) *Store {
	return &Store{
		bridge:             bridge,
		legacyClausesFile:  legacyClauses,
		legacySnippetsFile: legacySnippets,
	}
}

// LoadItems returns every persisted library item. A missing file is reported
// as apperr.ErrNotFound, an unparsable one as apperr.ErrCorruptData.
func (s *Store) LoadItems() ([]models.LibraryItem, error) {
	var items []models.LibraryItem
	if err := s.loadJSON(ItemsFile, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveItems persists the full item collection.
func (s *Store) SaveItems(items []models.LibraryItem) error {
	return s.saveJSON(ItemsFile, items)
}

// LoadCategories returns every persisted category.
func (s *Store) LoadCategories() ([]models.LibraryCategory, error) {
	var cats []models.LibraryCategory
	if err := s.loadJSON(CategoriesFile, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// SaveCategories persists the full category collection.
func (s *Store) SaveCategories(cats []models.LibraryCategory) error {
	return s.saveJSON(CategoriesFile, cats)
}

// LoadMetadata returns the persisted library metadata.
func (s *Store) LoadMetadata() (*models.LibraryMetadata, error) {
	var meta models.LibraryMetadata
	if err := s.loadJSON(MetadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveMetadata persists the library metadata.
func (s *Store) SaveMetadata(meta *models.LibraryMetadata) error {
	return s.saveJSON(MetadataFile, meta)
}

// legacyDump is the stored wrapper of the pre-unification catalogues.
type legacyDump struct {
	State struct {
		Clauses  []models.LegacyClause  `json:"clauses,omitempty"`
		Snippets []models.LegacySnippet `json:"snippets,omitempty"`
	} `json:"state"`
}

// SaveBackup writes the export document as a timestamped snapshot under the
// backup directory and returns the snapshot name.
func (s *Store) SaveBackup(doc *models.LibraryExport) (string, error) {
	name := fmt.Sprintf("backup-%s.json", doc.ExportedAt.UTC().Format("20060102-150405.000000000"))
	if err := s.saveJSON(path.Join(BackupDir, name), doc); err != nil {
		return "", err
	}
	return name, nil
}

// ListBackups returns the snapshot names, newest first.
func (s *Store) ListBackups() ([]string, error) {
	names, err := s.bridge.List(BackupDir)
	if err != nil {
		return nil, fmt.Errorf("persist: list backups: %w", err)
	}
	out := names[:0]
	for _, n := range names {
		if strings.HasSuffix(n, ".json") {
			out = append(out, n)
		}
	}
	// Names embed the creation timestamp, so the lexicographic order is the
	// chronological one.
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

// LoadBackup reads one snapshot back. The name must be a bare file name as
// returned by ListBackups.
func (s *Store) LoadBackup(name string) (*models.LibraryExport, error) {
	if name == "" || name != path.Base(name) || !strings.HasSuffix(name, ".json") {
		return nil, fmt.Errorf("persist: backup name %q: %w", name, apperr.ErrValidation)
	}
	var doc models.LibraryExport
	if err := s.loadJSON(path.Join(BackupDir, name), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadLegacyClauses reads the legacy clause catalogue. Absence of the dump
// is normal on a fresh install and yields an empty catalogue.
func (s *Store) LoadLegacyClauses() ([]models.LegacyClause, error) {
	if s.legacyClausesFile == "" || !s.bridge.Exists(s.legacyClausesFile) {
		return nil, nil
	}
	data, err := s.bridge.Read(s.legacyClausesFile)
	if err != nil {
		return nil, fmt.Errorf("persist: read legacy clauses: %w", err)
	}
	var dump legacyDump
	if err := json.Unmarshal(data, &dump); err == nil && dump.State.Clauses != nil {
		return dump.State.Clauses, nil
	}
	// Tolerate a bare array dump.
	var bare []models.LegacyClause
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("persist: legacy clauses: %w", apperr.ErrCorruptData)
	}
	return bare, nil
}

// LoadLegacySnippets reads the legacy snippet catalogue.
func (s *Store) LoadLegacySnippets() ([]models.LegacySnippet, error) {
	if s.legacySnippetsFile == "" || !s.bridge.Exists(s.legacySnippetsFile) {
		return nil, nil
	}
	data, err := s.bridge.Read(s.legacySnippetsFile)
	if err != nil {
		return nil, fmt.Errorf("persist: read legacy snippets: %w", err)
	}
	var dump legacyDump
	if err := json.Unmarshal(data, &dump); err == nil && dump.State.Snippets != nil {
		return dump.State.Snippets, nil
	}
	var bare []models.LegacySnippet
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("persist: legacy snippets: %w", apperr.ErrCorruptData)
	}
	return bare, nil
}

func (s *Store) loadJSON(file string, target any) error {
	if !s.bridge.Exists(file) {
		return fmt.Errorf("persist: %s: %w", file, apperr.ErrNotFound)
	}
	data, err := s.bridge.Read(file)
	if err != nil {
		return fmt.Errorf("persist: read %s: %w", file, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("persist: %s: %w", file, apperr.ErrCorruptData)
	}
	return nil
}

func (s *Store) saveJSON(file string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal %s: %w", file, err)
	}
	if err := s.bridge.Write(file, append(data, '\n')); err != nil {
		return fmt.Errorf("persist: write %s: %w", file, err)
	}
	return nil
}
