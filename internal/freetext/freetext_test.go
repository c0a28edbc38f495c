package freetext

import "testing"

var durationUnits = map[string]map[string][]string{
	"tr-TR": {
		"day":   {"gün", "gündür", "günlük"},
		"week":  {"hafta", "haftadır"},
		"month": {"ay", "aydır"},
	},
}

var severityWords = map[string]map[string][]string{
	"tr-TR": {
		"mild":     {"hafif", "az"},
		"moderate": {"orta"},
		"severe":   {"şiddetli", "çok kötü"},
	},
}

var severityValues = map[string]int{"mild": 2, "moderate": 6, "severe": 8}

var timingWords = map[string]map[string][]string{
	"tr-TR": {
		"morning": {"sabah"},
		"evening": {"akşam"},
		"night":   {"gece"},
		"day":     {"gündüz"},
	},
}

func TestDurationDays(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3 gündür", 3},
		{"1 haftadır", 7},
		{"2 aydır", 60},
		{"5", 5},
	}
	for _, c := range cases {
		got := DurationDays(c.in, "tr-TR", durationUnits)
		if got == nil || *got != c.want {
			t.Errorf("DurationDays(%q) = %v, want %d", c.in, got, c.want)
		}
	}
}

func TestDurationDaysUnparsable(t *testing.T) {
	got := DurationDays("bilmiyorum", "tr-TR", durationUnits)
	if got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
}

func TestSeverity(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"7", 7},
		{"7/10", 7},
		{"hafif", 2},
		{"orta şiddette", 6},
		{"çok şiddetli ağrı", 8},
	}
	for _, c := range cases {
		got := Severity0To10(c.in, "tr-TR", severityWords, severityValues)
		if got == nil || *got != c.want {
			t.Errorf("Severity0To10(%q) = %v, want %d", c.in, got, c.want)
		}
	}
}

func TestTiming(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sabah kalkınca", "morning"},
		{"gece oluyor", "night"},
	}
	for _, c := range cases {
		got := Timing(c.in, "tr-TR", timingWords)
		if got == nil || *got != c.want {
			t.Errorf("Timing(%q) = %v, want %q", c.in, got, c.want)
		}
	}
}

func TestTimingUnparsable(t *testing.T) {
	got := Timing("belirsiz", "tr-TR", timingWords)
	if got != nil {
		t.Errorf("expected nil, got %v", *got)
	}
}
