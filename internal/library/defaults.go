package library

import (
	"time"

	"github.com/0Janvier/citadelle-library/internal/models"
)

// Builtin items ship with fixed ids so that seeding is idempotent and a
// modified builtin can be restored to its pristine form.

func defaultClauses(now time.Time) []models.LibraryItem {
	defs := []models.LibraryItem{
		{
			ID:          "clause-builtin-confidentialite",
			Title:       "Clause de confidentialité standard",
			Description: "Clause de confidentialité pour contrats commerciaux",
			CategoryID:  "cat-contrats",
			Tags:        []string{"NDA", "secret", "commercial"},
			Content: models.RichContent(models.RichNode{Type: "doc", Content: []models.RichNode{
				{Type: "heading", Attrs: map[string]any{"level": 3}, Content: []models.RichNode{
					{Type: "text", Text: "ARTICLE X – CONFIDENTIALITÉ"},
				}},
				{Type: "paragraph", Content: []models.RichNode{
					{Type: "text", Text: "Chaque Partie s'engage à considérer comme strictement confidentielles toutes les informations de quelque nature qu'elles soient, écrites ou orales, relatives à l'autre Partie, dont elle aura eu connaissance à l'occasion de la négociation, de la conclusion ou de l'exécution du présent contrat."},
				}},
				{Type: "paragraph", Content: []models.RichNode{
					{Type: "text", Text: "Les Parties s'interdisent de divulguer ces informations à des tiers, sauf accord préalable et écrit de l'autre Partie."},
				}},
				{Type: "paragraph", Content: []models.RichNode{
					{Type: "text", Text: "Cette obligation de confidentialité perdurera pendant une durée de [DURÉE] à compter de la fin du présent contrat, pour quelque cause que ce soit."},
				}},
			}}),
		},
		{
			ID:          "clause-builtin-force-majeure",
			Title:       "Clause de force majeure",
			Description: "Clause de force majeure conforme à l'article 1218 du Code civil",
			CategoryID:  "cat-contrats",
			Tags:        []string{"force majeure", "exonération", "responsabilité"},
			Content: models.RichContent(models.RichNode{Type: "doc", Content: []models.RichNode{
				{Type: "heading", Attrs: map[string]any{"level": 3}, Content: []models.RichNode{
					{Type: "text", Text: "ARTICLE X – FORCE MAJEURE"},
				}},
				{Type: "paragraph", Content: []models.RichNode{
					{Type: "text", Text: "Aucune des Parties ne sera tenue pour responsable d'un manquement à l'une quelconque de ses obligations si ce manquement est provoqué par un événement de force majeure au sens de l'article 1218 du Code civil."},
				}},
			}}),
		},
		{
			ID:          "clause-builtin-resolutoire-bail",
			Title:       "Clause résolutoire bail",
			Description: "Clause résolutoire pour défaut de paiement du loyer",
			CategoryID:  "cat-baux",
			Tags:        []string{"bail", "résiliation", "loyer", "impayé"},
			Content: models.RichContent(models.RichNode{Type: "doc", Content: []models.RichNode{
				{Type: "heading", Attrs: map[string]any{"level": 3}, Content: []models.RichNode{
					{Type: "text", Text: "ARTICLE X – CLAUSE RÉSOLUTOIRE"},
				}},
				{Type: "paragraph", Content: []models.RichNode{
					{Type: "text", Text: "À défaut de paiement à son échéance d'un seul terme de loyer ou de charges, ou à défaut d'exécution de l'une quelconque des conditions du présent bail, celui-ci sera résilié de plein droit, si bon semble au Bailleur, un mois après un commandement de payer demeuré infructueux."},
				}},
			}}),
		},
		{
			ID:          "clause-builtin-juridiction",
			Title:       "Clause attributive de juridiction",
			Description: "Clause d'attribution de compétence territoriale",
			CategoryID:  "cat-contrats",
			Tags:        []string{"juridiction", "compétence", "tribunal"},
			Content: models.RichContent(models.RichNode{Type: "doc", Content: []models.RichNode{
				{Type: "heading", Attrs: map[string]any{"level": 3}, Content: []models.RichNode{
					{Type: "text", Text: "ARTICLE X – ATTRIBUTION DE JURIDICTION"},
				}},
				{Type: "paragraph", Content: []models.RichNode{
					{Type: "text", Text: "TOUT LITIGE RELATIF À LA VALIDITÉ, L'INTERPRÉTATION, L'EXÉCUTION OU LA RÉSILIATION DU PRÉSENT CONTRAT SERA SOUMIS À LA COMPÉTENCE EXCLUSIVE DES TRIBUNAUX DE [VILLE]."},
				}},
			}}),
		},
	}
	for i := range defs {
		defs[i].Type = models.TypeClause
		defs[i].ContentFormat = models.FormatRichText
		defs[i].IsFavorite = true
		finishDefault(&defs[i], now)
	}
	return defs
}

func defaultSnippets(now time.Time) []models.LibraryItem {
	defs := []models.LibraryItem{
		{
			ID:          "snippet-builtin-plaise",
			Title:       "Plaise au Tribunal",
			Description: "Formule d'introduction des conclusions",
			CategoryID:  "cat-contentieux",
			Shortcut:    "/plaise",
			Content:     models.TextContent("PLAISE AU TRIBUNAL\n\nVu les pièces versées aux débats,\n\nVu les articles {{articles}} du Code {{code}},"),
		},
		{
			ID:          "snippet-builtin-plaisecour",
			Title:       "Plaise à la Cour",
			Description: "Formule d'introduction pour la Cour d'appel",
			CategoryID:  "cat-contentieux",
			Shortcut:    "/plaisecour",
			Content:     models.TextContent("PLAISE À LA COUR\n\nVu l'appel interjeté par {{appelant}},\n\nVu les pièces versées aux débats,"),
		},
		{
			ID:          "snippet-builtin-attendu",
			Title:       "Attendu que",
			Description: "Formule de motivation",
			CategoryID:  "cat-contentieux",
			Shortcut:    "/attendu",
			Content:     models.TextContent("ATTENDU QUE "),
		},
		{
			ID:          "snippet-builtin-considerant",
			Title:       "Considérant que",
			Description: "Formule de motivation administrative",
			CategoryID:  "cat-contentieux",
			Shortcut:    "/considerant",
			Content:     models.TextContent("CONSIDÉRANT QUE "),
		},
		{
			ID:          "snippet-builtin-soussignes",
			Title:       "Entre les soussignés",
			Description: "En-tête classique de contrat",
			CategoryID:  "cat-contractuel",
			Shortcut:    "/soussignes",
			Content: models.TextContent("ENTRE LES SOUSSIGNÉS :\n\n{{partie1.nom}}, {{partie1.forme_juridique}}, au capital de {{partie1.capital}} euros, " +
				"immatriculée au RCS de {{partie1.rcs_ville}} sous le numéro {{partie1.rcs_numero}}, dont le siège social est situé {{partie1.adresse}}, " +
				"représentée par {{partie1.representant}}, en sa qualité de {{partie1.qualite}}, dûment habilité(e) aux fins des présentes,\n\n" +
				"Ci-après dénommée « {{partie1.denomination}} »"),
		},
		{
			ID:          "snippet-builtin-entete",
			Title:       "En-tête cabinet",
			Description: "En-tête avec informations du cabinet",
			CategoryID:  "cat-courrier",
			Shortcut:    "/entete",
			Content: models.TextContent("{{avocat.cabinet}}\n{{avocat.nom}}\nAvocat au Barreau de {{avocat.barreau}}\nToque {{avocat.toque}}\n\n" +
				"{{avocat.adresse}}\n{{avocat.code_postal}} {{avocat.ville}}\nTél. : {{avocat.telephone}}\nEmail : {{avocat.email}}"),
		},
		{
			ID:          "snippet-builtin-refs",
			Title:       "Références dossier",
			Description: "Bloc de références",
			CategoryID:  "cat-courrier",
			Shortcut:    "/refs",
			Content:     models.TextContent("Nos références : {{dossier.reference}}\nVos références : {{dossier.reference_adverse}}\nAffaire : {{client.nom}} c/ {{adverse.nom}}"),
		},
		{
			ID:          "snippet-builtin-mm",
			Title:       "Madame, Monsieur",
			Description: "Formule d'appel neutre",
			CategoryID:  "cat-courrier",
			Shortcut:    "/mm",
			Content:     models.TextContent("Madame, Monsieur,"),
		},
		{
			ID:          "snippet-builtin-confrere",
			Title:       "Cher Confrère",
			Description: "Formule d'appel confrère",
			CategoryID:  "cat-courrier",
			Shortcut:    "/confrere",
			Content:     models.TextContent("Cher Confrère,"),
		},
		{
			ID:          "snippet-builtin-president",
			Title:       "Monsieur le Président",
			Description: "Formule d'appel président tribunal",
			CategoryID:  "cat-courrier",
			Shortcut:    "/president",
			Content:     models.TextContent("Monsieur le Président,"),
		},
	}
	for i := range defs {
		defs[i].Type = models.TypeSnippet
		defs[i].ContentFormat = models.FormatPlainText
		defs[i].LegacySnippetCategory = legacyCategoryFor(defs[i].CategoryID)
		finishDefault(&defs[i], now)
	}
	return defs
}

func finishDefault(item *models.LibraryItem, now time.Time) {
	item.Version = 1
	item.Source = models.SourceBuiltin
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.ContentFormat == models.FormatPlainText {
		item.Variables = models.ExtractVariables(item.ContentText())
	}
	item.SearchText = models.ComputeSearchText(item)
}

func legacyCategoryFor(categoryID string) string {
	for legacy, id := range models.LegacySnippetCategories {
		if id == categoryID {
			return legacy
		}
	}
	return ""
}

// defaultItems returns every builtin item, keyed by fixed id.
func defaultItems(now time.Time) map[string]models.LibraryItem {
	out := make(map[string]models.LibraryItem)
	for _, item := range defaultClauses(now) {
		out[item.ID] = item
	}
	for _, item := range defaultSnippets(now) {
		out[item.ID] = item
	}
	return out
}
