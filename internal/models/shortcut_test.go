package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeShortcut(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"MonRaccourci", "/monraccourci"},
		{"/plaise", "/plaise"},
		{"  /Plaise  ", "/plaise"},
		{"//double", "/double"},
		{"avec espace", "/avecespace"},
		{"é!ç", "/"},
		{"", "/"},
		{"ref_2-b", "/ref_2-b"},
	}
	for _, c := range cases {
		got := NormalizeShortcut(c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
		assert.Equal(t, got, NormalizeShortcut(got), "not idempotent for %q", c.in)
	}
}

func TestIsValidShortcut(t *testing.T) {
	assert.True(t, IsValidShortcut("MonRaccourci"))
	assert.True(t, IsValidShortcut("/plaise"))
	assert.True(t, IsValidShortcut("ref_2-b"))
	assert.False(t, IsValidShortcut(""))
	assert.False(t, IsValidShortcut("/"))
	assert.False(t, IsValidShortcut("éàü"))
}

func TestExtractVariables(t *testing.T) {
	assert.Equal(t,
		[]string{"nom", "dossier"},
		ExtractVariables("Bonjour {{nom}}, votre {{dossier}} est pret"))

	assert.Equal(t,
		[]string{"a"},
		ExtractVariables("{{a}} et {{a}} encore"))

	assert.Nil(t, ExtractVariables("aucune variable ici"))
	assert.Nil(t, ExtractVariables("{{}}"))

	// Case-sensitive, dotted identifiers, inner whitespace trimmed.
	assert.Equal(t,
		[]string{"client.nom", "Client.Nom"},
		ExtractVariables("{{ client.nom }} {{Client.Nom}}"))
}
