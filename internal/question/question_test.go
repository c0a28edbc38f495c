package question

import (
	"testing"

	"pretriage/internal/candidate"
	"pretriage/internal/catalog"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		ContextQuestions: []catalog.ContextQuestion{
			{ID: "age", Question: map[string]string{"tr-TR": "Yaşınız?"}, AnswerType: "number", ProfileField: "age", WhenAsk: "always", Order: 1},
			{ID: "sex", Question: map[string]string{"tr-TR": "Cinsiyetiniz?"}, AnswerType: "choice", ProfileField: "sex", WhenAsk: "always", Order: 2},
			{ID: "pregnancy", Question: map[string]string{"tr-TR": "Hamile misiniz?"}, AnswerType: "boolean", ProfileField: "pregnant", WhenAsk: "female_only", WhenSymptomsAny: []string{"karın ağrısı"}, Order: 3},
		},
		RedFlagQuestions: []catalog.RedFlagQuestion{
			{ID: "loc", Question: map[string]string{"tr-TR": "Bilinç kaybı oldu mu?"}, Preconditions: []string{"baş dönmesi"}, Reason: map[string]string{"tr-TR": "güvenlik"}},
		},
		QuestionBank: map[string][]catalog.QuestionBankEntry{
			"tr-TR": {
				{Canonical: "bulantı", Question: "Bulantınız var mı?", AnswerType: "boolean"},
				{Canonical: "ateş", Question: "Ateşiniz var mı?", AnswerType: "boolean", PriorityWhenKnown: []string{"baş ağrısı"}},
				{Canonical: "öksürük süresi", Question: "Öksürük ne zamandır?", AnswerType: "text"},
			},
		},
		QuestionSkipRules: []catalog.QuestionSkipRule{
			{CanonicalSymptom: "öksürük süresi", SkipIfDenied: []string{"öksürük"}},
		},
		DiseaseSymptoms: map[string][]string{
			"Migraine":  {"headache", "nausea"},
			"Influenza": {"headache", "fever"},
		},
		CanonicalToKaggle: map[string][]string{
			"bulantı": {"nausea"},
			"ateş":    {"fever"},
		},
		QuestionSelector: catalog.QuestionSelectorConfig{
			PriorityBoost:                  0.35,
			MinCandidatesForDiscriminative: 2,
		},
	}
}

func TestSelectContextAskedInOrder(t *testing.T) {
	cat := testCatalog()
	s := SelectNext("tr-TR", nil, nil, Profile{}, Asked{}, nil, cat)
	if s.Kind != "context" || s.ID != "age" {
		t.Fatalf("expected age context question first, got %+v", s)
	}
}

func TestSelectContextPregnancyGatedByPreconditions(t *testing.T) {
	cat := testCatalog()
	female := "female"
	asked := Asked{ContextIDs: map[string]bool{"age": true, "sex": true}}
	s := SelectNext("tr-TR", nil, nil, Profile{Sex: &female}, asked, nil, cat)
	if s.Kind != "none" {
		t.Fatalf("expected no question without karın ağrısı known, got %+v", s)
	}
	s2 := SelectNext("tr-TR", []string{"karın ağrısı"}, nil, Profile{Sex: &female}, asked, nil, cat)
	if s2.Kind != "context" || s2.ID != "pregnancy" {
		t.Fatalf("expected pregnancy question, got %+v", s2)
	}
}

func TestSelectRedFlagFiresOnPrecondition(t *testing.T) {
	cat := testCatalog()
	asked := Asked{ContextIDs: map[string]bool{"age": true, "sex": true, "pregnancy": true}}
	s := SelectNext("tr-TR", []string{"baş dönmesi"}, nil, Profile{}, asked, nil, cat)
	if s.Kind != "red_flag" || s.ID != "loc" {
		t.Fatalf("expected red flag question, got %+v", s)
	}
}

func TestSelectDiscriminativeSkipsRuleAndDeniedAndAsked(t *testing.T) {
	cat := testCatalog()
	asked := Asked{
		ContextIDs: map[string]bool{"age": true, "sex": true, "pregnancy": true},
		RedFlagIDs: map[string]bool{"loc": true},
	}
	cands := []candidate.Candidate{
		{DiseaseLabel: "Migraine", Score: 0.8},
		{DiseaseLabel: "Influenza", Score: 0.3},
	}
	s := SelectNext("tr-TR", []string{"baş ağrısı"}, []string{"öksürük"}, Profile{}, asked, cands, cat)
	if s.Kind != "discriminative" {
		t.Fatalf("expected discriminative question, got %+v", s)
	}
	if s.ID == "öksürük süresi" {
		t.Errorf("expected öksürük süresi to be skipped by skip rule, got %+v", s)
	}
}

func TestSelectContextSkipsWhenProfileFieldAlreadySet(t *testing.T) {
	cat := testCatalog()
	age := 34
	s := SelectNext("tr-TR", nil, nil, Profile{Age: &age}, Asked{}, nil, cat)
	if s.Kind != "context" || s.ID != "sex" {
		t.Fatalf("expected age to be skipped via profile, sex asked next, got %+v", s)
	}
}

func TestSelectDiscriminativeUsesMaxAcrossKaggleMappings(t *testing.T) {
	cat := &catalog.Catalog{
		QuestionBank: map[string][]catalog.QuestionBankEntry{
			"tr-TR": {
				{Canonical: "test_multi", Question: "?", AnswerType: "boolean"},
			},
		},
		DiseaseSymptoms: map[string][]string{
			"Migraine":  {"headache", "nausea"},
			"Influenza": {"headache"},
		},
		CanonicalToKaggle: map[string][]string{
			"test_multi": {"headache", "nausea"},
		},
		QuestionSelector: catalog.QuestionSelectorConfig{MinCandidatesForDiscriminative: 2},
	}
	cands := []candidate.Candidate{
		{DiseaseLabel: "Migraine", Score: 0.8},
		{DiseaseLabel: "Influenza", Score: 0.3},
	}

	// "headache" is known by both candidates (c=2, total=2 -> disc=0.5);
	// "nausea" only by Migraine (c=1, total=2 -> disc=1.0). Max must pick
	// 1.0, not the average of the two (0.75).
	s := SelectNext("tr-TR", nil, nil, Profile{}, Asked{}, cands, cat)
	if s.Kind != "discriminative" || s.ID != "test_multi" {
		t.Fatalf("expected test_multi discriminative question, got %+v", s)
	}
	if s.Score != 1.0 {
		t.Fatalf("expected max(0.5, 1.0) = 1.0, got %f (average would be 0.75)", s.Score)
	}
}

func TestSelectDiscriminativeNoneBelowMinCandidates(t *testing.T) {
	cat := testCatalog()
	asked := Asked{
		ContextIDs: map[string]bool{"age": true, "sex": true, "pregnancy": true},
		RedFlagIDs: map[string]bool{"loc": true},
	}
	cands := []candidate.Candidate{{DiseaseLabel: "Migraine", Score: 0.8}}
	s := SelectNext("tr-TR", []string{"baş ağrısı"}, nil, Profile{}, asked, cands, cat)
	if s.Kind != "none" {
		t.Fatalf("expected none below min candidates, got %+v", s)
	}
}
