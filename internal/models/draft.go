package models

import (
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ItemDraft carries the caller-supplied fields of a new library item. The
// store assigns id, version, timestamps, usage count and derived fields.
type ItemDraft struct {
	Type          ItemType        `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Content       json.RawMessage `json:"content"`
	ContentFormat ContentFormat   `json:"contentFormat"`
	CategoryID    string          `json:"categoryId"`
	Tags          []string        `json:"tags,omitempty"`
	Shortcut      string          `json:"shortcut,omitempty"`
	Source        ItemSource      `json:"source,omitempty"`
	IsFavorite    bool            `json:"isFavorite,omitempty"`
}

// Validate checks the structural rules of an item draft. Shortcut uniqueness
// and category existence are checked by the store against its cache.
func (d ItemDraft) Validate() error {
	if err := validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.Required, validation.In(TypeClause, TypeSnippet)),
		validation.Field(&d.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&d.Content, validation.Required),
		validation.Field(&d.ContentFormat, validation.Required, validation.In(FormatPlainText, FormatRichText)),
		validation.Field(&d.CategoryID, validation.Required),
		validation.Field(&d.Source, validation.In(SourceBuiltin, SourceModifiedBuiltin, SourceCustom, SourceImported)),
	); err != nil {
		return err
	}
	if d.Shortcut != "" {
		if d.Type != TypeSnippet {
			return fmt.Errorf("shortcut: only snippets may carry a shortcut")
		}
		if !IsValidShortcut(d.Shortcut) {
			return fmt.Errorf("shortcut: %q is not a valid shortcut", d.Shortcut)
		}
	}
	return nil
}

// ItemPatch carries a partial update of an item. Nil fields are left
// untouched. Every field of a patch is content-affecting: applying a
// non-empty patch bumps the item version.
type ItemPatch struct {
	Title         *string          `json:"title,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Content       *json.RawMessage `json:"content,omitempty"`
	ContentFormat *ContentFormat   `json:"contentFormat,omitempty"`
	CategoryID    *string          `json:"categoryId,omitempty"`
	Tags          *[]string        `json:"tags,omitempty"`
	Shortcut      *string          `json:"shortcut,omitempty"`
}

// Validate checks the structural rules of the set fields.
func (p ItemPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return fmt.Errorf("title: cannot be blank")
	}
	if p.ContentFormat != nil && *p.ContentFormat != FormatPlainText && *p.ContentFormat != FormatRichText {
		return fmt.Errorf("contentFormat: must be a valid value")
	}
	if p.CategoryID != nil && *p.CategoryID == "" {
		return fmt.Errorf("categoryId: cannot be blank")
	}
	if p.Shortcut != nil && *p.Shortcut != "" && !IsValidShortcut(*p.Shortcut) {
		return fmt.Errorf("shortcut: %q is not a valid shortcut", *p.Shortcut)
	}
	return nil
}

// CategoryDraft carries the caller-supplied fields of a new category.
type CategoryDraft struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Color       string   `json:"color,omitempty"`
	ParentID    string   `json:"parentId,omitempty"`
	Order       int      `json:"order,omitempty"`
	ItemType    ItemType `json:"itemType,omitempty"`
}

// Validate checks the structural rules of a category draft.
func (d CategoryDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&d.ItemType, validation.In(TypeClause, TypeSnippet)),
	)
}

// CategoryPatch carries a partial update of a category. Nil fields are left
// untouched.
type CategoryPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Icon        *string   `json:"icon,omitempty"`
	Color       *string   `json:"color,omitempty"`
	ParentID    *string   `json:"parentId,omitempty"`
	Order       *int      `json:"order,omitempty"`
	ItemType    *ItemType `json:"itemType,omitempty"`
}

// Validate checks the structural rules of the set fields.
func (p CategoryPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("name: cannot be blank")
	}
	if p.ItemType != nil && *p.ItemType != "" && *p.ItemType != TypeClause && *p.ItemType != TypeSnippet {
		return fmt.Errorf("itemType: must be a valid value")
	}
	return nil
}
