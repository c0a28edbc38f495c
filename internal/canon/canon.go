// Package canon implements the deterministic text canonicalizer (C1):
// Turkish-aware case folding, punctuation stripped to spaces, whitespace
// collapsed.
package canon

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	turkishCaser = cases.Lower(language.Turkish)
	punctuation  = regexp.MustCompile(`[.,;:!?(){}\[\]"'` + "`" + `~]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text with Turkish-aware case folding (İ -> i,
// I -> ı), replaces punctuation with a single space and collapses
// whitespace. The result is deterministic and reproducible for identical
// input.
func Normalize(text string) string {
	folded := turkishCaser.String(text)
	noPunct := punctuation.ReplaceAllString(folded, " ")
	collapsed := whitespace.ReplaceAllString(noPunct, " ")
	return strings.TrimSpace(collapsed)
}
