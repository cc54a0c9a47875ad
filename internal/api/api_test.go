package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0Janvier/citadelle-library/internal/library"
	"github.com/0Janvier/citadelle-library/internal/models"
	"github.com/0Janvier/citadelle-library/internal/persist"
	"github.com/0Janvier/citadelle-library/internal/storage"
)

func testRouter(t *testing.T) (http.Handler, *library.Service) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	svc := library.New(
		persist.New(fs, "legacy-clauses.json", "legacy-snippets.json"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return NewRouter(svc, false, "", nil), svc
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListItems(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/items", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp ItemListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total == 0 || len(resp.Items) != resp.Total {
		t.Errorf("total = %d, items = %d", resp.Total, len(resp.Items))
	}
}

func TestListItemsFiltered(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/items?type=snippet", nil)
	var resp ItemListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, it := range resp.Items {
		if it.Type != models.TypeSnippet {
			t.Errorf("unexpected %s item %s in snippet listing", it.Type, it.ID)
		}
	}

	w = doJSON(t, h, http.MethodGet, "/items?q=plaise", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) == 0 {
		t.Fatal("expected search hits for plaise")
	}
	if resp.Items[0].Shortcut != "/plaise" {
		t.Errorf("first hit shortcut = %q, want /plaise", resp.Items[0].Shortcut)
	}
}

func TestItemCRUD(t *testing.T) {
	h, _ := testRouter(t)

	draft := models.ItemDraft{
		Type:          models.TypeSnippet,
		Title:         "Salutations",
		Content:       models.TextContent("Bien à vous,"),
		ContentFormat: models.FormatPlainText,
		CategoryID:    "cat-courrier",
		Shortcut:      "/bav",
	}
	w := doJSON(t, h, http.MethodPost, "/items", draft)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var created Item
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Version != 1 || created.Shortcut != "/bav" {
		t.Errorf("created = %+v", created)
	}

	w = doJSON(t, h, http.MethodGet, "/items/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	title := "Salutations distinguées"
	w = doJSON(t, h, http.MethodPatch, "/items/"+created.ID, models.ItemPatch{Title: &title})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", w.Code, w.Body.String())
	}
	var updated Item
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Version != 2 || updated.Title != title {
		t.Errorf("updated = %+v", updated)
	}

	w = doJSON(t, h, http.MethodDelete, "/items/"+created.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = doJSON(t, h, http.MethodGet, "/items/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	h, _ := testRouter(t)

	// Validation error.
	w := doJSON(t, h, http.MethodPost, "/items", models.ItemDraft{Type: models.TypeSnippet})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid draft status = %d, want 400", w.Code)
	}

	// Unknown id.
	w = doJSON(t, h, http.MethodGet, "/items/clause-absente", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown item status = %d, want 404", w.Code)
	}

	// Builtin deletion conflict.
	w = doJSON(t, h, http.MethodDelete, "/items/clause-builtin-force-majeure", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("builtin delete status = %d, want 409", w.Code)
	}

	// Malformed body.
	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString("{pas du json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestItemActions(t *testing.T) {
	h, _ := testRouter(t)
	id := "snippet-builtin-plaise"

	w := doJSON(t, h, http.MethodPost, "/items/"+id+"/favorite", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("favorite status = %d", w.Code)
	}
	var item Item
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !item.IsFavorite {
		t.Error("favorite flag not set")
	}

	w = doJSON(t, h, http.MethodPost, "/items/"+id+"/usage", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.UsageCount != 1 {
		t.Errorf("usage = %d, want 1", item.UsageCount)
	}

	w = doJSON(t, h, http.MethodPost, "/items/"+id+"/duplicate", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("duplicate status = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.ID == id || item.Source != models.SourceCustom {
		t.Errorf("duplicate = %+v", item)
	}

	// Reset requires a modified builtin.
	w = doJSON(t, h, http.MethodPost, "/items/"+id+"/reset", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("reset pristine builtin status = %d, want 409", w.Code)
	}
	title := "Remanié"
	doJSON(t, h, http.MethodPatch, "/items/"+id, models.ItemPatch{Title: &title})
	w = doJSON(t, h, http.MethodPost, "/items/"+id+"/reset", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", w.Code, w.Body.String())
	}
}

func TestCategoryRoutes(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/categories", nil)
	var list CategoryListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Categories) != 13 {
		t.Errorf("categories = %d, want 13", len(list.Categories))
	}

	w = doJSON(t, h, http.MethodPost, "/categories", models.CategoryDraft{Name: "Fiscalité"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create category status = %d", w.Code)
	}
	var cat Category
	if err := json.Unmarshal(w.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doJSON(t, h, http.MethodDelete, "/categories/"+cat.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete category status = %d", w.Code)
	}
	w = doJSON(t, h, http.MethodDelete, "/categories/cat-contrats", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("delete builtin category status = %d, want 409", w.Code)
	}
}

func TestSearchSurfaces(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/suggestions?q=/pla", nil)
	var sugg SuggestionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &sugg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sugg.Suggestions) == 0 {
		t.Fatal("expected suggestions for /pla")
	}

	w = doJSON(t, h, http.MethodGet, "/shortcuts", nil)
	var sc ShortcutsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &sc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sc.Shortcuts) == 0 {
		t.Fatal("expected shortcuts")
	}
}

func TestExportImportRoutes(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	var doc models.LibraryExport
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Items) == 0 || doc.FormatVersion != models.ExportFormatVersion {
		t.Errorf("doc = %d items, version %q", len(doc.Items), doc.FormatVersion)
	}

	w = doJSON(t, h, http.MethodPost, "/export/items", ExportItemsRequest{IDs: []string{"snippet-builtin-plaise"}})
	if w.Code != http.StatusOK {
		t.Fatalf("export items status = %d", w.Code)
	}

	// Re-importing the full export with merge skips everything.
	w = doJSON(t, h, http.MethodPost, "/import?merge=true", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", w.Code, w.Body.String())
	}
	var res models.ImportResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ItemsImported != 0 || res.ItemsSkipped != len(doc.Items) {
		t.Errorf("result = %+v", res)
	}
}

func TestBackupRoutes(t *testing.T) {
	h, svc := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/backups", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	var list BackupListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Backups) != 0 {
		t.Errorf("backups before any snapshot = %v, want none", list.Backups)
	}

	created, err := svc.CreateItem(context.Background(), models.ItemDraft{
		Type:          models.TypeSnippet,
		Title:         "Perdu puis retrouvé",
		Content:       models.TextContent("Bonjour,"),
		ContentFormat: models.FormatPlainText,
		CategoryID:    "cat-courrier",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	w = doJSON(t, h, http.MethodPost, "/backups", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", w.Code)
	}
	var backup BackupResponse
	if err := json.Unmarshal(w.Body.Bytes(), &backup); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if backup.Name == "" {
		t.Fatal("backup name is empty")
	}

	if err := svc.DeleteItem(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	w = doJSON(t, h, http.MethodPost, "/backups/"+backup.Name+"/restore", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restore status = %d, want 200: %s", w.Code, w.Body)
	}
	if _, err := svc.GetItem(created.ID); err != nil {
		t.Errorf("item not restored: %v", err)
	}

	w = doJSON(t, h, http.MethodPost, "/backups/backup-absent.json/restore", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("restore of missing snapshot status = %d, want 404", w.Code)
	}
}

func TestReloadRoute(t *testing.T) {
	h, svc := testRouter(t)

	created, err := svc.CreateItem(context.Background(), models.ItemDraft{
		Type:          models.TypeSnippet,
		Title:         "Éphémère",
		Content:       models.TextContent("Bonjour,"),
		ContentFormat: models.FormatPlainText,
		CategoryID:    "cat-courrier",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	w := doJSON(t, h, http.MethodPost, "/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}
	var st StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "ready" {
		t.Errorf("state = %q, want ready", st.State)
	}
	if _, err := svc.GetItem(created.ID); err != nil {
		t.Errorf("persisted item lost across reload: %v", err)
	}
}

func TestStateRoute(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/state", nil)
	var st StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.State != "ready" {
		t.Errorf("state = %q, want ready", st.State)
	}
}

func TestAuthMiddleware(t *testing.T) {
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	svc := library.New(
		persist.New(fs, "legacy-clauses.json", "legacy-snippets.json"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	h := NewRouter(svc, true, "secret", nil)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("good token status = %d, want 200", w.Code)
	}
}
