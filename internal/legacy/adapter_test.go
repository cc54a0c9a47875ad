package legacy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0Janvier/citadelle-library/internal/library"
	"github.com/0Janvier/citadelle-library/internal/models"
	"github.com/0Janvier/citadelle-library/internal/persist"
	"github.com/0Janvier/citadelle-library/internal/storage"
)

func newAdapter(t *testing.T) (*Adapter, *library.Service) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	svc := library.New(
		persist.New(fs, "legacy-clauses.json", "legacy-snippets.json"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	require.NoError(t, svc.Initialize(context.Background()))
	return NewAdapter(svc), svc
}

func TestSnippetsExposeRetiredShape(t *testing.T) {
	a, _ := newAdapter(t)

	snippets := a.Snippets()
	require.NotEmpty(t, snippets)
	for _, s := range snippets {
		assert.NotEmpty(t, s.Nom)
		assert.NotEmpty(t, s.Contenu)
		assert.NotEmpty(t, s.Category)
	}
}

func TestByShortcut(t *testing.T) {
	a, _ := newAdapter(t)

	s, ok := a.ByShortcut("plaise")
	require.True(t, ok)
	assert.Equal(t, "Plaise au Tribunal", s.Nom)
	assert.Equal(t, "/plaise", s.Raccourci)
	assert.Equal(t, "contentieux", s.Category)
	assert.True(t, s.IsBuiltin)

	_, ok = a.ByShortcut("/rien")
	assert.False(t, ok)
}

func TestSuggestionsForFiltersClauses(t *testing.T) {
	a, _ := newAdapter(t)

	for _, s := range a.SuggestionsFor("plaise") {
		assert.NotEmpty(t, s.Nom)
	}
}

func TestRecordUsage(t *testing.T) {
	a, svc := newAdapter(t)

	require.NoError(t, a.RecordUsage(context.Background(), "snippet-builtin-plaise"))
	item, err := svc.GetItem("snippet-builtin-plaise")
	require.NoError(t, err)
	assert.Equal(t, 1, item.UsageCount)

	err = a.RecordUsage(context.Background(), "snippet-disparu")
	assert.Error(t, err)
}

func TestCustomSnippetFallsBackToCustomCategory(t *testing.T) {
	a, svc := newAdapter(t)

	_, err := svc.CreateItem(context.Background(), models.ItemDraft{
		Type:          models.TypeSnippet,
		Title:         "Perso",
		Content:       models.TextContent("Texte perso"),
		ContentFormat: models.FormatPlainText,
		CategoryID:    "cat-custom",
		Shortcut:      "/perso",
	})
	require.NoError(t, err)

	s, ok := a.ByShortcut("/perso")
	require.True(t, ok)
	assert.Equal(t, "custom", s.Category)
	assert.False(t, s.IsBuiltin)
}
