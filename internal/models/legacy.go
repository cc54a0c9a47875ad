package models

import "encoding/json"

// LegacyClause is one entry of the pre-unification clause catalogue, keyed by
// a free-text domain. Field names follow the stored French schema.
// Timestamps are kept as raw strings: legacy dumps are loosely typed and a
// malformed date must not fail the whole record.
type LegacyClause struct {
	ID             string          `json:"id"`
	Titre          string          `json:"titre"`
	Description    string          `json:"description,omitempty"`
	Contenu        json.RawMessage `json:"contenu"`
	TexteRecherche string          `json:"texteRecherche,omitempty"`
	Domaine        string          `json:"domaine"`
	Type           string          `json:"type,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Favoris        bool            `json:"favoris,omitempty"`
	UsageCount     int             `json:"usageCount,omitempty"`
	IsBuiltin      bool            `json:"isBuiltin,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
}

// LegacySnippet is one entry of the pre-unification snippet catalogue, keyed
// by a fixed category enum and carrying a "raccourci" shortcut.
type LegacySnippet struct {
	ID          string   `json:"id"`
	Nom         string   `json:"nom"`
	Description string   `json:"description,omitempty"`
	Raccourci   string   `json:"raccourci"`
	Contenu     string   `json:"contenu"`
	Category    string   `json:"category"`
	Variables   []string `json:"variables,omitempty"`
	IsBuiltin   bool     `json:"isBuiltin,omitempty"`
	UsageCount  int      `json:"usageCount,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}
