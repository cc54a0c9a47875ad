package models

import (
	"regexp"
	"strings"
)

var (
	shortcutRe      = regexp.MustCompile(`^/[a-z0-9_-]+$`)
	shortcutCleanRe = regexp.MustCompile(`[^a-z0-9_-]`)
	variableRe      = regexp.MustCompile(`\{\{([^}]+)\}\}`)
)

// NormalizeShortcut lower-cases s, strips whitespace and any character
// outside [a-z0-9_-], and prefixes exactly one "/". Idempotent.
func NormalizeShortcut(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = shortcutCleanRe.ReplaceAllString(s, "")
	return "/" + s
}

// IsValidShortcut reports whether the normalized form of s is a usable
// shortcut: "/" followed by at least one of [a-z0-9_-].
func IsValidShortcut(s string) bool {
	return shortcutRe.MatchString(NormalizeShortcut(s))
}

// ExtractVariables scans plain text for {{identifier}} tokens and returns
// the identifiers in first-seen order, case-sensitive, deduplicated.
func ExtractVariables(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range variableRe.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
