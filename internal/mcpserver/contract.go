package mcpserver

// SnippetFormatContract describes the canonical snippet format that LLM
// consumers should follow when composing or rendering snippet content.
const SnippetFormatContract = `# Citadelle Snippet Format Contract

Snippets are plain-text fragments inserted into legal documents, invoked by
a shortcut typed in the editor.

## Shortcuts

- A shortcut starts with ` + "`" + `/` + "`" + ` followed by lowercase letters, digits,
  hyphens or underscores: ` + "`" + `/plaise` + "`" + `, ` + "`" + `/ref-dossier` + "`" + `.
- Shortcuts are unique across the whole library.
- Lookup is lenient: ` + "`" + `PLAISE` + "`" + ` and ` + "`" + `/plaise` + "`" + ` resolve to the same snippet.

## Variables

- Placeholders use double braces: ` + "`" + `{{nom}}` + "`" + `, ` + "`" + `{{dossier.reference}}` + "`" + `.
- Dotted names group related fields (` + "`" + `client.nom` + "`" + `, ` + "`" + `client.adresse` + "`" + `).
- The variable list of a snippet is derived from its content automatically;
  do not maintain it by hand.
- When rendering, placeholders without a provided value are left intact so
  the author can fill them in the document.

## Example

` + "```" + `text
Nos références : {{dossier.reference}}
Affaire : {{client.nom}} c/ {{adverse.nom}}
` + "```" + `

Rendered with ` + "`" + `{"client.nom": "DUPONT"}` + "`" + `:

` + "```" + `text
Nos références : {{dossier.reference}}
Affaire : DUPONT c/ {{adverse.nom}}
` + "```" + `

## Language policy

Snippet content is typically French legal boilerplate; keep the original
capitalization (formulas like PLAISE AU TRIBUNAL are uppercase by
convention). Variable names are lowercase, without accents.
`
