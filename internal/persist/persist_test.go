package persist

import (
	"errors"
	"testing"
	"time"

	"github.com/0Janvier/citadelle-library/internal/apperr"
	"github.com/0Janvier/citadelle-library/internal/models"
	"github.com/0Janvier/citadelle-library/internal/storage"
)

func testStore(t *testing.T) (*Store, storage.Provider) {
	t.Helper()
	bridge, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return New(bridge, "legacy/clauses.json", "legacy/snippets.json"), bridge
}

func TestMissingFilesReportNotFound(t *testing.T) {
	s, _ := testStore(t)
	if _, err := s.LoadItems(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadItems err = %v, want ErrNotFound", err)
	}
	if _, err := s.LoadCategories(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadCategories err = %v, want ErrNotFound", err)
	}
	if _, err := s.LoadMetadata(); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadMetadata err = %v, want ErrNotFound", err)
	}
}

func TestItemRoundtrip(t *testing.T) {
	s, _ := testStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	items := []models.LibraryItem{{
		ID:            "snippet-abc",
		Type:          models.TypeSnippet,
		Version:       1,
		Title:         "Plaise au Tribunal",
		Content:       models.TextContent("PLAISE AU TRIBUNAL"),
		ContentFormat: models.FormatPlainText,
		CategoryID:    "cat-contentieux",
		Tags:          []string{"conclusions"},
		Shortcut:      "/plaise",
		Variables:     []string{"articles"},
		Source:        models.SourceBuiltin,
		CreatedAt:     now,
		UpdatedAt:     now,
	}}
	if err := s.SaveItems(items); err != nil {
		t.Fatalf("SaveItems: %v", err)
	}
	got, err := s.LoadItems()
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].ID != "snippet-abc" || got[0].Shortcut != "/plaise" || !got[0].CreatedAt.Equal(now) {
		t.Errorf("roundtrip mismatch: %+v", got[0])
	}
	if text, ok := models.PlainContent(got[0].Content); !ok || text != "PLAISE AU TRIBUNAL" {
		t.Errorf("content roundtrip mismatch: %q ok=%v", text, ok)
	}
}

func TestMetadataRoundtrip(t *testing.T) {
	s, _ := testStore(t)
	meta := &models.LibraryMetadata{
		SchemaVersion:      models.SchemaVersion,
		MigrationCompleted: true,
		ItemCount:          3,
		CategoryCount:      13,
	}
	if err := s.SaveMetadata(meta); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}
	got, err := s.LoadMetadata()
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if !got.MigrationCompleted || got.ItemCount != 3 {
		t.Errorf("metadata mismatch: %+v", got)
	}
}

func TestBackupRoundtrip(t *testing.T) {
	s, _ := testStore(t)

	names, err := s.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("ListBackups before any backup = %v, want empty", names)
	}

	older := &models.LibraryExport{
		FormatVersion: models.ExportFormatVersion,
		ExportedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Items:         []models.LibraryItem{{ID: "snippet-abc", Type: models.TypeSnippet, Title: "Plaise"}},
	}
	newer := &models.LibraryExport{
		FormatVersion: models.ExportFormatVersion,
		ExportedAt:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	olderName, err := s.SaveBackup(older)
	if err != nil {
		t.Fatalf("SaveBackup: %v", err)
	}
	newerName, err := s.SaveBackup(newer)
	if err != nil {
		t.Fatalf("SaveBackup: %v", err)
	}

	names, err = s.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups: %v", err)
	}
	if len(names) != 2 || names[0] != newerName || names[1] != olderName {
		t.Errorf("ListBackups = %v, want [%s %s]", names, newerName, olderName)
	}

	doc, err := s.LoadBackup(olderName)
	if err != nil {
		t.Fatalf("LoadBackup: %v", err)
	}
	if len(doc.Items) != 1 || doc.Items[0].ID != "snippet-abc" {
		t.Errorf("restored document lost its items: %+v", doc.Items)
	}
}

func TestLoadBackupRejectsBadNames(t *testing.T) {
	s, _ := testStore(t)
	for _, name := range []string{"", "../items.json", "sub/backup.json", "backup.txt"} {
		if _, err := s.LoadBackup(name); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("LoadBackup(%q) err = %v, want ErrValidation", name, err)
		}
	}
	if _, err := s.LoadBackup("backup-absent.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadBackup on missing snapshot err = %v, want ErrNotFound", err)
	}
}

func TestCorruptFilesReportCorruptData(t *testing.T) {
	s, bridge := testStore(t)
	_ = bridge.Write(ItemsFile, []byte(`{"not":"an array"`))
	if _, err := s.LoadItems(); !errors.Is(err, apperr.ErrCorruptData) {
		t.Errorf("LoadItems err = %v, want ErrCorruptData", err)
	}
	_ = bridge.Write(MetadataFile, []byte(`[]`))
	if _, err := s.LoadMetadata(); !errors.Is(err, apperr.ErrCorruptData) {
		t.Errorf("LoadMetadata err = %v, want ErrCorruptData", err)
	}
}

func TestLegacyDumps(t *testing.T) {
	s, bridge := testStore(t)

	// Absent dumps are an empty catalogue, not an error.
	clauses, err := s.LoadLegacyClauses()
	if err != nil || clauses != nil {
		t.Fatalf("absent dump: %v %v", clauses, err)
	}

	_ = bridge.Write("legacy/clauses.json",
		[]byte(`{"state":{"clauses":[{"id":"c1","titre":"Clause X","domaine":"baux"}]}}`))
	clauses, err = s.LoadLegacyClauses()
	if err != nil {
		t.Fatalf("LoadLegacyClauses: %v", err)
	}
	if len(clauses) != 1 || clauses[0].Titre != "Clause X" || clauses[0].Domaine != "baux" {
		t.Errorf("clauses = %+v", clauses)
	}

	// Bare-array dumps are tolerated.
	_ = bridge.Write("legacy/snippets.json",
		[]byte(`[{"id":"s1","nom":"Plaise","raccourci":"/plaise","contenu":"PLAISE","category":"contentieux"}]`))
	snippets, err := s.LoadLegacySnippets()
	if err != nil {
		t.Fatalf("LoadLegacySnippets: %v", err)
	}
	if len(snippets) != 1 || snippets[0].Raccourci != "/plaise" {
		t.Errorf("snippets = %+v", snippets)
	}

	// Corrupt dumps are distinct errors.
	_ = bridge.Write("legacy/snippets.json", []byte(`not json`))
	if _, err := s.LoadLegacySnippets(); !errors.Is(err, apperr.ErrCorruptData) {
		t.Errorf("corrupt dump err = %v, want ErrCorruptData", err)
	}
}
