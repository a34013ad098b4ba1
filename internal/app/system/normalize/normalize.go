// Package normalize centralizes input normalization so the stores and the
// verifier agree on how usernames and names are matched and persisted.
package normalize

import "strings"

// Username lowercases and trims a login username. Matching against the
// stored record additionally folds diacritics via text.Fold on the _ci
// field; this function only canonicalizes what the user typed.
func Username(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Name trims surrounding whitespace but preserves case.
func Name(v string) string {
	return strings.TrimSpace(v)
}

// Role lowercases and trims a role token.
func Role(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
