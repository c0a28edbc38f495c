// Package candidate implements Layer A (C4): a weighted Jaccard similarity
// between the user's known symptoms and each disease's symptom set in
// "kaggle space", returning the top-K scoring diseases.
package candidate

import (
	"sort"

	"pretriage/internal/catalog"
)

// Candidate is one ranked disease with its kaggle-space evidence.
type Candidate struct {
	DiseaseLabel    string
	Score           float64
	MatchedSymptoms []string
	MissingSymptoms []string
}

// Generate expands userCanonicals into kaggle space and scores every
// disease in the catalog's disease->symptom matrix. Pure: same inputs
// always produce the same ranked, truncated output.
func Generate(userCanonicals []string, cat *catalog.Catalog) []Candidate {
	u := expandToKaggle(userCanonicals, cat.CanonicalToKaggle)
	if len(u) == 0 {
		return nil
	}

	weight := func(symptom string) float64 {
		w := cat.CandidateGenerator.DefaultSymptomWeight
		if sev, ok := cat.SymptomSeverity[symptom]; ok {
			w += float64(sev) * cat.CandidateGenerator.SeverityWeightMultiplier
		}
		return w
	}

	var out []Candidate
	for disease, symptoms := range cat.DiseaseSymptoms {
		sd := toSet(symptoms)

		var numerator, denominator float64
		union := map[string]bool{}
		for s := range u {
			union[s] = true
		}
		for s := range sd {
			union[s] = true
		}
		for s := range union {
			w := weight(s)
			denominator += w
			if u[s] && sd[s] {
				numerator += w
			}
		}
		if denominator == 0 {
			continue
		}
		score := numerator / denominator
		if score < cat.CandidateGenerator.MinScoreToInclude {
			continue
		}

		var matched, missing []string
		for s := range sd {
			if u[s] {
				matched = append(matched, s)
			} else {
				missing = append(missing, s)
			}
		}
		sort.Strings(matched)
		sort.Strings(missing)

		out = append(out, Candidate{
			DiseaseLabel:    disease,
			Score:           score,
			MatchedSymptoms: matched,
			MissingSymptoms: missing,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DiseaseLabel < out[j].DiseaseLabel
	})

	topK := cat.CandidateGenerator.TopK
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

func expandToKaggle(canonicals []string, reverse map[string][]string) map[string]bool {
	out := map[string]bool{}
	for _, c := range canonicals {
		for _, k := range reverse[c] {
			out[k] = true
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
