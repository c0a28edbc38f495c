// Package decision implements the A+B fusion (C6): Layer A's disease
// ranks contribute confidence-weighted priors per specialty, which are
// added to Layer B's rules score to produce the final ranking.
package decision

import (
	"sort"

	"pretriage/internal/candidate"
	"pretriage/internal/catalog"
	"pretriage/internal/specialty"
)

// rankPoints is the fixed point schedule for Layer A ranks 1..5.
var rankPoints = map[int]float64{1: 4, 2: 3, 3: 2, 4: 1, 5: 1}

// Ranked is one specialty's final score plus both component scores, kept
// for explainability.
type Ranked struct {
	SpecialtyID  string
	Final        float64
	RulesScore   int
	KeywordScore int
	Prior        float64
}

// Merge combines Layer A candidates and Layer B specialty scores into one
// deterministic ranking. If candidates is empty, priors are zero and
// rules drive; if specScores is empty, priors alone drive.
func Merge(candidates []candidate.Candidate, specScores []specialty.Score, cat *catalog.Catalog) []Ranked {
	prior := map[string]float64{}
	for i, c := range candidates {
		rank := i + 1
		pts, ok := rankPoints[rank]
		if !ok {
			continue
		}
		d2s, ok := cat.DiseaseToSpecialty[c.DiseaseLabel]
		if !ok {
			continue
		}
		prior[d2s.ID] += pts * d2s.Confidence
	}

	byID := map[string]specialty.Score{}
	for _, s := range specScores {
		byID[s.ID] = s
	}

	ids := map[string]bool{}
	for id := range byID {
		ids[id] = true
	}
	for id := range prior {
		ids[id] = true
	}

	var out []Ranked
	for id := range ids {
		s := byID[id]
		out = append(out, Ranked{
			SpecialtyID:  id,
			RulesScore:   s.Score,
			KeywordScore: s.KeywordScore,
			Prior:        prior[id],
			Final:        float64(s.Score) + prior[id],
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Final != out[j].Final {
			return out[i].Final > out[j].Final
		}
		if out[i].KeywordScore != out[j].KeywordScore {
			return out[i].KeywordScore > out[j].KeywordScore
		}
		return out[i].SpecialtyID < out[j].SpecialtyID
	})
	return out
}
