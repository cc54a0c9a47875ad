package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func tempLibrary(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempLibrary(t)
	content := []byte(`[{"id":"clause-1"}]`)
	if err := s.Write("items.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("items.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempLibrary(t)
	if err := s.Write("legacy/clauses.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("legacy/clauses.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "{}" {
		t.Errorf("content = %q", got)
	}
}

func TestList(t *testing.T) {
	s := tempLibrary(t)
	got, err := s.List("backups")
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List on missing dir = %v, want empty", got)
	}
	_ = s.Write("backups/b.json", []byte("{}"))
	_ = s.Write("backups/a.json", []byte("{}"))
	_ = s.Write("backups/.hidden", []byte("{}"))
	got, err = s.List("backups")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0] != "a.json" || got[1] != "b.json" {
		t.Errorf("List = %v, want [a.json b.json]", got)
	}
}

func TestExists(t *testing.T) {
	s := tempLibrary(t)
	if s.Exists("metadata.json") {
		t.Error("Exists = true before write")
	}
	_ = s.Write("metadata.json", []byte("{}"))
	if !s.Exists("metadata.json") {
		t.Error("Exists = false after write")
	}
}

func TestDelete(t *testing.T) {
	s := tempLibrary(t)
	_ = s.Write("old.json", []byte("bye"))
	if err := s.Delete("old.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("old.json") {
		t.Error("file still exists after delete")
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	s := tempLibrary(t)
	if _, err := s.Read("../outside.json"); err == nil {
		t.Error("expected error for escaping read")
	}
	if err := s.Write("../outside.json", []byte("x")); err == nil {
		t.Error("expected error for escaping write")
	}
	if _, err := s.Read("/etc/passwd"); err == nil {
		t.Error("expected error for absolute path")
	}
}

func TestWriteLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := s.Write("items.json", []byte("[]")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "items.json" {
			t.Errorf("unexpected leftover file %q", filepath.Join(dir, e.Name()))
		}
	}
}
