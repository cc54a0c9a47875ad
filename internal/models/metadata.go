package models

import "time"

// SchemaVersion is the current persisted library schema version.
const SchemaVersion = "1.0.0"

// ExportFormatVersion is the version stamp written into export documents.
const ExportFormatVersion = "1.0.0"

// LibraryMetadata is the process-wide persisted state of the library. The
// counts are advisory and recomputable from the record files.
type LibraryMetadata struct {
	SchemaVersion      string    `json:"schemaVersion"`
	MigrationCompleted bool      `json:"migrationCompleted"`
	MigratedFrom       string    `json:"migratedFrom,omitempty"`
	ItemCount          int       `json:"itemCount"`
	CategoryCount      int       `json:"categoryCount"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// LibraryExport is the serialized document produced by exportLibrary and
// accepted by importLibrary.
type LibraryExport struct {
	FormatVersion string            `json:"formatVersion"`
	ExportedAt    time.Time         `json:"exportedAt"`
	Items         []LibraryItem     `json:"items"`
	Categories    []LibraryCategory `json:"categories"`
}

// ImportResult aggregates the outcome of an import run. A non-empty Errors
// list does not mean the run aborted: each record fails independently.
type ImportResult struct {
	ItemsImported      int      `json:"itemsImported"`
	ItemsSkipped       int      `json:"itemsSkipped"`
	CategoriesImported int      `json:"categoriesImported"`
	Errors             []string `json:"errors"`
}

// MigrationResult aggregates the outcome of a legacy migration run, with the
// same partial-failure semantics as ImportResult.
type MigrationResult struct {
	ItemsMigrated     int      `json:"itemsMigrated"`
	ItemsSkipped      int      `json:"itemsSkipped"`
	CategoriesCreated int      `json:"categoriesCreated"`
	Errors            []string `json:"errors"`
}
