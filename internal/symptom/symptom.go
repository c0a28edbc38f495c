// Package symptom implements the deterministic symptom interpreter (C2):
// a phrase-then-keyword matcher over a synonym index that never lets a
// canonical contribute twice (NO_DOUBLE_COUNT_SAME_CANONICAL).
package symptom

import (
	"sort"
	"strings"

	"pretriage/internal/canon"
	"pretriage/internal/catalog"
)

// Variant is one (canonical, normalized phrase) pair in the synonym index.
type Variant struct {
	Canonical string
	Phrase    string
}

// Index is the synonym index: variants sorted longest-match-first, ties
// broken by the variant string ascending.
type Index struct {
	Variants   []Variant
	Canonicals []string // all canonical strings, sorted ascending
}

// BuildIndex normalizes every synonym and its variants and orders the
// index deterministically: longest phrase first, then lexicographic.
func BuildIndex(synonyms []catalog.Synonym) *Index {
	idx := &Index{}
	seen := map[string]bool{}
	for _, s := range synonyms {
		canonical := canon.Normalize(s.Canonical)
		if canonical == "" {
			continue
		}
		if !seen[canonical] {
			seen[canonical] = true
			idx.Canonicals = append(idx.Canonicals, canonical)
		}
		for _, v := range s.Variants {
			nv := canon.Normalize(v)
			if nv == "" {
				continue
			}
			idx.Variants = append(idx.Variants, Variant{Canonical: canonical, Phrase: nv})
		}
	}
	sort.Slice(idx.Variants, func(i, j int) bool {
		a, b := idx.Variants[i], idx.Variants[j]
		if len(a.Phrase) != len(b.Phrase) {
			return len(a.Phrase) > len(b.Phrase)
		}
		return a.Phrase < b.Phrase
	})
	sort.Strings(idx.Canonicals)
	return idx
}

// MatchedPhrase records a phrase-pass hit.
type MatchedPhrase struct {
	Canonical string
	Phrase    string
}

// Result is the interpreter's output for one piece of normalized text.
type Result struct {
	MatchedPhrases           []MatchedPhrase
	MatchedKeywordCanonicals []string
	Canonicals               []string // locked set, sorted
}

// Interpret runs the phrase-then-keyword matcher over already-normalized
// text. Phrases take priority over keywords for the same canonical: once a
// canonical is locked by a phrase match, the keyword pass skips it.
func Interpret(normalizedText string, idx *Index) Result {
	locked := map[string]bool{}
	var phrases []MatchedPhrase

	for _, v := range idx.Variants {
		if locked[v.Canonical] {
			continue
		}
		if containsWord(normalizedText, v.Phrase) {
			locked[v.Canonical] = true
			phrases = append(phrases, MatchedPhrase{Canonical: v.Canonical, Phrase: v.Phrase})
		}
	}

	var keywords []string
	for _, c := range idx.Canonicals {
		if locked[c] {
			continue
		}
		if containsWord(normalizedText, c) {
			locked[c] = true
			keywords = append(keywords, c)
		}
	}

	canonicals := make([]string, 0, len(locked))
	for c := range locked {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	return Result{
		MatchedPhrases:           phrases,
		MatchedKeywordCanonicals: keywords,
		Canonicals:               canonicals,
	}
}

// containsWord reports whether phrase occurs in text as a substring. Both
// text and phrase are expected to already be canon.Normalize-d.
func containsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(text, phrase)
}
