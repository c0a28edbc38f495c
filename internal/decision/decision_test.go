package decision

import (
	"testing"

	"pretriage/internal/candidate"
	"pretriage/internal/catalog"
	"pretriage/internal/specialty"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		DiseaseToSpecialty: map[string]catalog.DiseaseToSpecialty{
			"Migraine":         {ID: "neurology", Confidence: 0.9},
			"Tension headache": {ID: "neurology", Confidence: 0.7},
			"Urinary tract infection": {ID: "urology_internal", Confidence: 0.85},
		},
	}
}

func TestMergePriorAddsToRules(t *testing.T) {
	cat := testCatalog()
	cands := []candidate.Candidate{
		{DiseaseLabel: "Migraine", Score: 0.8},
		{DiseaseLabel: "Urinary tract infection", Score: 0.3},
	}
	specs := []specialty.Score{
		{ID: "neurology", Score: 5, KeywordScore: 3},
		{ID: "urology_internal", Score: 2, KeywordScore: 2},
	}

	ranked := Merge(cands, specs, cat)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked specialties, got %d", len(ranked))
	}
	if ranked[0].SpecialtyID != "neurology" {
		t.Errorf("expected neurology first, got %s", ranked[0].SpecialtyID)
	}
	wantPrior := 4.0 * 0.9
	if ranked[0].Prior != wantPrior {
		t.Errorf("expected prior %f, got %f", wantPrior, ranked[0].Prior)
	}
	wantFinal := 5.0 + wantPrior
	if ranked[0].Final != wantFinal {
		t.Errorf("expected final %f, got %f", wantFinal, ranked[0].Final)
	}
}

func TestMergeEmptyCandidatesRulesOnly(t *testing.T) {
	cat := testCatalog()
	specs := []specialty.Score{
		{ID: "neurology", Score: 5, KeywordScore: 3},
		{ID: "urology_internal", Score: 8, KeywordScore: 5},
	}
	ranked := Merge(nil, specs, cat)
	if ranked[0].SpecialtyID != "urology_internal" {
		t.Errorf("expected urology_internal first on rules alone, got %s", ranked[0].SpecialtyID)
	}
	for _, r := range ranked {
		if r.Prior != 0 {
			t.Errorf("expected zero prior with no candidates, got %f", r.Prior)
		}
	}
}

func TestMergeEmptyRulesPriorOnly(t *testing.T) {
	cat := testCatalog()
	cands := []candidate.Candidate{
		{DiseaseLabel: "Urinary tract infection", Score: 0.9},
	}
	ranked := Merge(cands, nil, cat)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked specialty, got %d", len(ranked))
	}
	if ranked[0].SpecialtyID != "urology_internal" {
		t.Errorf("expected urology_internal, got %s", ranked[0].SpecialtyID)
	}
	if ranked[0].RulesScore != 0 {
		t.Errorf("expected zero rules score, got %d", ranked[0].RulesScore)
	}
}

func TestMergeDeterministicTieBreak(t *testing.T) {
	cat := testCatalog()
	var cands []candidate.Candidate
	specs := []specialty.Score{
		{ID: "neurology", Score: 3, KeywordScore: 3},
		{ID: "urology_internal", Score: 3, KeywordScore: 3},
	}
	a := Merge(cands, specs, cat)
	b := Merge(cands, specs, cat)
	for i := range a {
		if a[i].SpecialtyID != b[i].SpecialtyID {
			t.Errorf("non-deterministic ordering at %d: %s vs %s", i, a[i].SpecialtyID, b[i].SpecialtyID)
		}
	}
	if a[0].SpecialtyID != "neurology" {
		t.Errorf("expected neurology to win equal final/keyword tie via specialty_id asc, got %s", a[0].SpecialtyID)
	}
}
