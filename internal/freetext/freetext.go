// Package freetext implements the three deterministic, side-effect-free
// sub-parsers (C3): duration in days, severity 0-10, and time-of-day
// timing. Each is idempotent; unparsable input yields an empty result,
// never an error.
package freetext

import (
	"regexp"
	"strconv"
	"strings"

	"pretriage/internal/canon"
	"pretriage/internal/catalog"
)

// Parsed holds whichever fields were successfully extracted from one raw
// answer. Unset fields stay nil.
type Parsed struct {
	DurationDays *int
	Severity0To10 *int
	Timing        *string
}

var (
	fractionPattern = regexp.MustCompile(`(\d{1,2})\s*/\s*10`)
	bareNumberPattern = regexp.MustCompile(`^(\d{1,3})$`)
	bareSeverityPattern = regexp.MustCompile(`^(\d{1,2})$`)
)

// DurationDays recognizes "<int> (day|week|month)(suffix)?" phrases for
// the given locale's unit vocabulary, converting weeks to ×7 and months to
// ×30 days. A bare integer is interpreted as a day count.
func DurationDays(text, locale string, units map[string]map[string][]string) *int {
	norm := canon.Normalize(text)
	localeUnits := units[locale]
	if localeUnits == nil {
		localeUnits = units[catalog.DefaultLocale]
	}

	if n, ok := matchUnit(norm, localeUnits["day"]); ok {
		return intPtr(n)
	}
	if n, ok := matchUnit(norm, localeUnits["week"]); ok {
		return intPtr(n * 7)
	}
	if n, ok := matchUnit(norm, localeUnits["month"]); ok {
		return intPtr(n * 30)
	}

	if m := bareNumberPattern.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 && n < 365 {
			return intPtr(n)
		}
	}
	return nil
}

func matchUnit(norm string, keywords []string) (int, bool) {
	for _, kw := range keywords {
		nkw := canon.Normalize(kw)
		if nkw == "" {
			continue
		}
		pat := regexp.MustCompile(`(\d+)\s*` + regexp.QuoteMeta(nkw))
		m := pat.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || n >= 365 {
			continue
		}
		return n, true
	}
	return 0, false
}

// Severity0To10 recognizes an integer 0-10, an "<n>/10" form, or a
// locale-specific lexical map (mild/moderate/severe).
func Severity0To10(text, locale string, words map[string]map[string][]string, values map[string]int) *int {
	norm := canon.Normalize(text)

	if m := fractionPattern.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 0 && n <= 10 {
			return intPtr(n)
		}
	}
	if m := bareSeverityPattern.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 0 && n <= 10 {
			return intPtr(n)
		}
	}

	localeWords := words[locale]
	if localeWords == nil {
		localeWords = words[catalog.DefaultLocale]
	}
	// Check severe/moderate/mild in that order so overlapping substrings
	// ("kötü" appearing in both a severe and moderate phrase, say) resolve
	// to the strongest match.
	for _, label := range []string{"severe", "moderate", "mild"} {
		for _, kw := range localeWords[label] {
			if strings.Contains(norm, canon.Normalize(kw)) {
				if v, ok := values[label]; ok {
					return intPtr(v)
				}
			}
		}
	}
	return nil
}

// Timing classifies text into morning/evening/night/day by keyword.
func Timing(text, locale string, words map[string]map[string][]string) *string {
	norm := canon.Normalize(text)
	localeWords := words[locale]
	if localeWords == nil {
		localeWords = words[catalog.DefaultLocale]
	}
	for _, label := range []string{"morning", "evening", "night", "day"} {
		for _, kw := range localeWords[label] {
			if strings.Contains(norm, canon.Normalize(kw)) {
				l := label
				return &l
			}
		}
	}
	return nil
}

// ParseFreeTextAnswer consults the catalog's DURATION/SEVERITY/TIMING
// canonical sets and runs only the sub-parsers applicable to canonical.
func ParseFreeTextAnswer(canonical, raw, locale string, cat *catalog.Catalog) Parsed {
	var out Parsed
	if raw == "" {
		return out
	}
	if cat.ParseDuration[canonical] {
		out.DurationDays = DurationDays(raw, locale, cat.DurationUnits)
	}
	if cat.ParseSeverity[canonical] {
		out.Severity0To10 = Severity0To10(raw, locale, cat.SeverityWords, cat.SeverityValues)
	}
	if cat.ParseTiming[canonical] {
		out.Timing = Timing(raw, locale, cat.TimingWords)
	}
	return out
}

func intPtr(n int) *int {
	return &n
}
