// Package safety implements the stop/safety policy (C8): emergency
// short-circuit detection, non-stopping same-day banners, the
// max-questions/min-expected-gain stop rule, and confidence scoring.
package safety

import (
	"strings"

	"pretriage/internal/catalog"
)

// EvaluateEmergency returns the first emergency rule whose any_of/all_of
// predicate is satisfied by known, in catalog order. durationDays and
// severity0To10 carry the parsed free-text answers keyed by canonical, used
// to gate a rule's optional minimum-duration/minimum-severity conditions.
func EvaluateEmergency(known map[string]bool, durationDays, severity0To10 map[string]int, cat *catalog.Catalog) (catalog.EmergencyRule, bool) {
	for _, r := range cat.EmergencyRules {
		if len(r.AnyOf) > 0 && !anyKnown(r.AnyOf, known) {
			continue
		}
		if !allKnown(r.AllOf, known) {
			continue
		}
		if r.MinDurationCanon != "" {
			d, ok := durationDays[r.MinDurationCanon]
			if !ok || d < r.MinDurationDays {
				continue
			}
		}
		if r.MinSeverityCanon != "" {
			s, ok := severity0To10[r.MinSeverityCanon]
			if !ok || s < r.MinSeverity0To10 {
				continue
			}
		}
		return r, true
	}
	return catalog.EmergencyRule{}, false
}

// EvaluateSameDay returns every same-day rule that fires. Unlike
// emergency rules, these decorate the turn with a softer banner and
// never stop the flow.
func EvaluateSameDay(known map[string]bool, durationDays map[string]int, cat *catalog.Catalog) []catalog.SameDayRule {
	var out []catalog.SameDayRule
	for _, r := range cat.SameDayRules {
		if !anyKnown(r.AnyOf, known) {
			continue
		}
		if r.MinDurationCanon != "" {
			d, ok := durationDays[r.MinDurationCanon]
			if !ok || d < r.MinDurationDays {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// MaxQuestions returns the question budget for the current top specialty
// and top disease label: the tighter emergency budget applies whenever
// either names an emergency-adjacent specialty or disease.
func MaxQuestions(topSpecialtyID, topDiseaseLabel string, cat *catalog.Catalog) int {
	for _, id := range cat.StopRules.EmergencySpecialtyIDs {
		if id == topSpecialtyID {
			return cat.StopRules.MaxQuestionsEmergency
		}
	}
	label := strings.ToLower(topDiseaseLabel)
	for _, kw := range cat.StopRules.EmergencyDiseaseKeywords {
		if strings.Contains(label, strings.ToLower(kw)) {
			return cat.StopRules.MaxQuestionsEmergency
		}
	}
	return cat.StopRules.MaxQuestions
}

// ShouldStop decides whether to stop asking questions and emit a result:
// the question budget is exhausted, or the next question's expected
// information gain has fallen below the floor.
func ShouldStop(questionsAsked, maxQuestions int, expectedGain float64, cat *catalog.Catalog) bool {
	if questionsAsked >= maxQuestions {
		return true
	}
	if expectedGain < cat.StopRules.MinExpectedGainFloor {
		return true
	}
	return false
}

// Confidence computes clamp01(top1*0.75 + gap*0.6) over the top two
// Layer A candidate scores (each in 0..1) and labels it against the
// catalog thresholds.
func Confidence(top1, second float64, thresholds catalog.ConfidenceThresholds) (float64, string) {
	gap := top1 - second
	c := clamp01(top1*0.75 + gap*0.6)

	label := "Düşük"
	switch {
	case c >= thresholds.High:
		label = "Yüksek"
	case c >= thresholds.Medium:
		label = "Orta"
	}
	return c, label
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func anyKnown(items []string, set map[string]bool) bool {
	for _, it := range items {
		if set[it] {
			return true
		}
	}
	return false
}

func allKnown(items []string, set map[string]bool) bool {
	for _, it := range items {
		if !set[it] {
			return false
		}
	}
	return true
}
