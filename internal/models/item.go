// Package models defines the domain types of the unified clause/snippet library.
package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ItemType distinguishes the two kinds of library items.
type ItemType string

const (
	TypeClause  ItemType = "clause"
	TypeSnippet ItemType = "snippet"
)

// ContentFormat describes how an item's content payload is encoded.
type ContentFormat string

const (
	FormatPlainText ContentFormat = "plaintext"
	FormatRichText  ContentFormat = "richtext"
)

// ItemSource records where an item came from.
type ItemSource string

const (
	SourceBuiltin         ItemSource = "builtin"
	SourceModifiedBuiltin ItemSource = "modified-builtin"
	SourceCustom          ItemSource = "custom"
	SourceImported        ItemSource = "imported"
)

// LibraryItem is a single reusable text fragment: a rich-text clause or a
// plain-text snippet with an optional invoking shortcut.
type LibraryItem struct {
	ID            string          `json:"id"`
	Type          ItemType        `json:"type"`
	Version       int             `json:"version"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Content       json.RawMessage `json:"content"`
	ContentFormat ContentFormat   `json:"contentFormat"`
	SearchText    string          `json:"searchText"`
	CategoryID    string          `json:"categoryId"`
	Tags          []string        `json:"tags"`
	Shortcut      string          `json:"shortcut,omitempty"`
	Variables     []string        `json:"variables"`

	// Provenance of records folded in from the pre-unification schemas.
	LegacyDomaine         string `json:"legacyDomaine,omitempty"`
	LegacyClauseType      string `json:"legacyClauseType,omitempty"`
	LegacySnippetCategory string `json:"legacySnippetCategory,omitempty"`

	Source    ItemSource `json:"source"`
	BuiltinID string     `json:"builtinId,omitempty"`

	IsFavorite bool `json:"isFavorite"`
	UsageCount int  `json:"usageCount"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// NewItemID returns a fresh opaque item id, prefixed with the item type.
func NewItemID(t ItemType) string {
	return string(t) + "-" + uuid.NewString()
}

// Clone returns a deep copy of the item.
func (i *LibraryItem) Clone() *LibraryItem {
	cp := *i
	cp.Content = append(json.RawMessage(nil), i.Content...)
	cp.Tags = append([]string(nil), i.Tags...)
	cp.Variables = append([]string(nil), i.Variables...)
	if i.LastUsedAt != nil {
		t := *i.LastUsedAt
		cp.LastUsedAt = &t
	}
	return &cp
}

// ContentText returns the item content reduced to plain text: the string
// itself for plaintext items, the flattened text of the node tree for
// richtext items.
func (i *LibraryItem) ContentText() string {
	if s, ok := PlainContent(i.Content); ok {
		return s
	}
	return ReduceRichContent(i.Content)
}

// RichNode is one node of a structured rich-document payload.
type RichNode struct {
	Type    string         `json:"type,omitempty"`
	Text    string         `json:"text,omitempty"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []RichNode     `json:"content,omitempty"`
}

// TextContent encodes a plain string as an item content payload.
func TextContent(s string) json.RawMessage {
	raw, _ := json.Marshal(s)
	return raw
}

// RichContent encodes a rich-document node tree as an item content payload.
func RichContent(doc RichNode) json.RawMessage {
	raw, _ := json.Marshal(doc)
	return raw
}

// PlainContent reports whether raw is a plain JSON string payload and
// returns the decoded text.
func PlainContent(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// ReduceRichContent deterministically flattens a structured rich-document
// payload into plain text for search indexing. Unparsable payloads reduce to
// the empty string.
func ReduceRichContent(raw json.RawMessage) string {
	var node RichNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return ""
	}
	return strings.TrimSpace(flattenNode(node))
}

func flattenNode(n RichNode) string {
	if n.Text != "" {
		return n.Text
	}
	parts := make([]string, 0, len(n.Content))
	for _, child := range n.Content {
		parts = append(parts, flattenNode(child))
	}
	return strings.Join(parts, " ")
}

// ComputeSearchText derives the flattened searchable text of an item from
// its title, description, content, tags and shortcut. Pure; recomputed on
// every content-affecting update and never hand-edited.
func ComputeSearchText(i *LibraryItem) string {
	var b strings.Builder
	b.WriteString(i.Title)
	if i.Description != "" {
		b.WriteByte(' ')
		b.WriteString(i.Description)
	}
	if text := i.ContentText(); text != "" {
		b.WriteByte(' ')
		b.WriteString(text)
	}
	if len(i.Tags) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(i.Tags, " "))
	}
	if i.Shortcut != "" {
		b.WriteByte(' ')
		b.WriteString(i.Shortcut)
	}
	return strings.ToLower(b.String())
}
