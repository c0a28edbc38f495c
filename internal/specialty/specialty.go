// Package specialty implements Layer B (C5): a deterministic per-specialty
// keyword/phrase score with negative keywords and explicit tie-breaks.
package specialty

import (
	"sort"
	"strings"

	"pretriage/internal/canon"
	"pretriage/internal/catalog"
	"pretriage/internal/symptom"
)

// Score is one specialty's scoring trace, kept for explainability.
type Score struct {
	ID                 string
	Score              int
	PhraseScore        int
	KeywordScore       int
	NegativePenalties  int
	MatchedPhrases     []string
	MatchedKeywords    []string
	MatchedCanonicals  []string
}

// Result is the full ranked output plus a top-tie flag.
type Result struct {
	Scores []Score
	TopTie bool
}

// ScoreAll runs the phrase-then-keyword-then-negative scoring pass over
// normalizedText for every configured specialty and returns them ranked by
// score desc, keyword_score desc, specialty_id asc.
func ScoreAll(normalizedText string, interp symptom.Result, cat *catalog.Catalog) Result {
	points := cat.Scoring
	var scores []Score

	for _, sp := range cat.Specialties {
		keywordSet := toSet(sp.Keywords)
		scored := map[string]bool{}

		s := Score{ID: sp.ID}

		// 1. Phrase pass: locked canonicals from the interpreter's phrase
		// matches take priority over keyword matches for the same
		// canonical (NO_DOUBLE_COUNT_SAME_CANONICAL).
		for _, mp := range interp.MatchedPhrases {
			if scored[mp.Canonical] {
				continue
			}
			if keywordSet[mp.Canonical] {
				s.PhraseScore += points.PhraseMatchPoints
				s.MatchedPhrases = append(s.MatchedPhrases, mp.Phrase)
				s.MatchedCanonicals = append(s.MatchedCanonicals, mp.Canonical)
				scored[mp.Canonical] = true
			}
		}

		// 2. Keyword pass: only canonicals not already phrase-scored.
		for _, c := range interp.MatchedKeywordCanonicals {
			if scored[c] {
				continue
			}
			if keywordSet[c] {
				s.KeywordScore += points.KeywordMatchPoints
				s.MatchedKeywords = append(s.MatchedKeywords, c)
				s.MatchedCanonicals = append(s.MatchedCanonicals, c)
				scored[c] = true
			}
		}

		// 3. Negative keywords: every literal occurrence in the text
		// penalizes, independent of the phrase/keyword passes.
		for _, neg := range sp.NegativeKeywords {
			if containsWord(normalizedText, canon.Normalize(neg)) {
				s.NegativePenalties += points.NegativeKeywordPenalty
			}
		}

		s.Score = s.PhraseScore + s.KeywordScore + s.NegativePenalties
		sort.Strings(s.MatchedCanonicals)
		scores = append(scores, s)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].KeywordScore != scores[j].KeywordScore {
			return scores[i].KeywordScore > scores[j].KeywordScore
		}
		return scores[i].ID < scores[j].ID
	})

	topTie := len(scores) >= 2 &&
		scores[0].Score == scores[1].Score &&
		scores[0].KeywordScore == scores[1].KeywordScore

	return Result{Scores: scores, TopTie: topTie}
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}

func containsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(text, phrase)
}
