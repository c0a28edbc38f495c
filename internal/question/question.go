// Package question implements the question selector (C7): context
// questions first, then red-flag probes, then a single discriminative
// question chosen to best split the remaining disease candidates.
package question

import (
	"sort"

	"pretriage/internal/candidate"
	"pretriage/internal/catalog"
)

// Profile holds the context answers collected so far.
type Profile struct {
	Age      *int
	Sex      *string // "female" | "male"
	Pregnant *bool
	Chronic  *string
}

// Asked tracks what has already been put to the user, so nothing repeats.
type Asked struct {
	ContextIDs map[string]bool
	RedFlagIDs map[string]bool
	Canonicals map[string]bool // question-bank canonicals already asked
}

// Selected is the next question to ask, or Kind == "none" if there is
// nothing left worth asking.
type Selected struct {
	Kind       string // "context" | "red_flag" | "discriminative" | "none"
	ID         string
	Question   string
	AnswerType string
	Choices    []string
	Reason     string  // red_flag only
	Score      float64 // discriminative score; 1.0 for context/red_flag, 0 for none
}

// SelectNext runs the fixed context -> red-flag -> discriminative pipeline
// and returns the first question found, in that priority order.
func SelectNext(locale string, known, denied []string, profile Profile, asked Asked, candidates []candidate.Candidate, cat *catalog.Catalog) Selected {
	knownSet := toSet(known)
	deniedSet := toSet(denied)

	if s, ok := selectContext(locale, knownSet, profile, asked, cat); ok {
		return s
	}
	if s, ok := selectRedFlag(locale, knownSet, asked, cat); ok {
		return s
	}
	if s, ok := selectDiscriminative(locale, knownSet, deniedSet, asked, candidates, cat); ok {
		return s
	}
	return Selected{Kind: "none"}
}

func selectContext(locale string, known map[string]bool, profile Profile, asked Asked, cat *catalog.Catalog) (Selected, bool) {
	qs := append([]catalog.ContextQuestion(nil), cat.ContextQuestions...)
	sort.Slice(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })

	for _, q := range qs {
		if asked.ContextIDs[q.ID] {
			continue
		}
		if profileFieldSet(q.ProfileField, profile) {
			continue
		}
		switch q.WhenAsk {
		case "female_only":
			if profile.Sex == nil || *profile.Sex != "female" {
				continue
			}
		}
		if len(q.WhenSymptomsAny) > 0 && !anyKnown(q.WhenSymptomsAny, known) {
			continue
		}
		return Selected{
			Kind:       "context",
			ID:         q.ID,
			Question:   catalog.TextFor(q.Question, locale),
			AnswerType: q.AnswerType,
			Choices:    catalog.ChoicesFor(q.Choices, locale),
			Score:      1.0,
		}, true
	}
	return Selected{}, false
}

// profileFieldSet reports whether profile already carries a value for the
// context question's profile_field, so a caller-supplied profile (spec
// §6.1 TurnRequest.Profile) skips the question the same as an asked one.
func profileFieldSet(field string, profile Profile) bool {
	switch field {
	case "age":
		return profile.Age != nil
	case "sex":
		return profile.Sex != nil
	case "pregnant":
		return profile.Pregnant != nil
	case "chronic":
		return profile.Chronic != nil
	}
	return false
}

func selectRedFlag(locale string, known map[string]bool, asked Asked, cat *catalog.Catalog) (Selected, bool) {
	for _, rf := range cat.RedFlagQuestions {
		if asked.RedFlagIDs[rf.ID] {
			continue
		}
		if !anyKnown(rf.Preconditions, known) {
			continue
		}
		return Selected{
			Kind:     "red_flag",
			ID:       rf.ID,
			Question: catalog.TextFor(rf.Question, locale),
			Reason:   catalog.TextFor(rf.Reason, locale),
			Score:    1.0,
		}, true
	}
	return Selected{}, false
}

func selectDiscriminative(locale string, known, denied map[string]bool, asked Asked, candidates []candidate.Candidate, cat *catalog.Catalog) (Selected, bool) {
	if len(candidates) < cat.QuestionSelector.MinCandidatesForDiscriminative {
		return Selected{}, false
	}

	candidateSets := make([]map[string]bool, len(candidates))
	for i, c := range candidates {
		candidateSets[i] = toSet(cat.DiseaseSymptoms[c.DiseaseLabel])
	}
	total := float64(len(candidateSets))

	skipped := map[string]bool{}
	for _, rule := range cat.QuestionSkipRules {
		if anyKnown(rule.SkipIfDenied, denied) {
			skipped[rule.CanonicalSymptom] = true
		}
	}

	best := map[string]float64{}
	bestEntry := map[string]catalog.QuestionBankEntry{}
	for _, entry := range cat.QuestionBank[locale] {
		if entry.Canonical == "" {
			continue
		}
		if asked.Canonicals[entry.Canonical] || known[entry.Canonical] || denied[entry.Canonical] || skipped[entry.Canonical] {
			continue
		}

		kaggle := cat.CanonicalToKaggle[entry.Canonical]
		if len(kaggle) == 0 {
			continue
		}
		var score float64
		for i, s := range kaggle {
			c := 0
			for _, set := range candidateSets {
				if set[s] {
					c++
				}
			}
			disc := 1 - abs(float64(c)/total-0.5)
			if i == 0 || disc > score {
				score = disc
			}
		}

		if intersects(entry.PriorityWhenKnown, known) {
			score += cat.QuestionSelector.PriorityBoost
		}

		if cur, ok := best[entry.Canonical]; !ok || score > cur {
			best[entry.Canonical] = score
			bestEntry[entry.Canonical] = entry
		}
	}

	if len(best) == 0 {
		return Selected{}, false
	}

	var canonicals []string
	for c := range best {
		canonicals = append(canonicals, c)
	}
	sort.Slice(canonicals, func(i, j int) bool {
		if best[canonicals[i]] != best[canonicals[j]] {
			return best[canonicals[i]] > best[canonicals[j]]
		}
		return canonicals[i] < canonicals[j]
	})

	top := bestEntry[canonicals[0]]
	return Selected{
		Kind:       "discriminative",
		ID:         top.Canonical,
		Question:   top.Question,
		AnswerType: top.AnswerType,
		Choices:    top.Choices,
		Score:      best[canonicals[0]],
	}, true
}

func anyKnown(items []string, set map[string]bool) bool {
	for _, it := range items {
		if set[it] {
			return true
		}
	}
	return false
}

func intersects(a []string, set map[string]bool) bool {
	return anyKnown(a, set)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
