package specialty

import (
	"testing"

	"pretriage/internal/canon"
	"pretriage/internal/catalog"
	"pretriage/internal/symptom"
)

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Specialties: []catalog.Specialty{
			{ID: "neurology", Keywords: []string{"baş ağrısı", "bulantı"}, NegativeKeywords: []string{"idrar yanması"}},
			{ID: "urology_internal", Keywords: []string{"idrar yanması"}, NegativeKeywords: []string{"baş ağrısı"}},
		},
		Scoring: catalog.ScoringConfig{
			KeywordMatchPoints:     3,
			PhraseMatchPoints:      5,
			NegativeKeywordPenalty: -4,
		},
	}
}

func testIndex() *symptom.Index {
	return symptom.BuildIndex([]catalog.Synonym{
		{Canonical: "baş ağrısı", Variants: []string{"başım ağrıyor"}},
		{Canonical: "bulantı", Variants: []string{"mide bulanması"}},
		{Canonical: "idrar yanması", Variants: []string{"idrarımı yaparken yanıyor"}},
	})
}

func TestScoreAllPhraseBeatsKeyword(t *testing.T) {
	cat := testCatalog()
	idx := testIndex()
	text := canon.Normalize("Başım ağrıyor ve bulantı var")
	interp := symptom.Interpret(text, idx)

	result := ScoreAll(text, interp, cat)
	var neuro Score
	for _, s := range result.Scores {
		if s.ID == "neurology" {
			neuro = s
		}
	}
	if neuro.PhraseScore != 5 {
		t.Errorf("expected phrase score 5 for baş ağrısı, got %d", neuro.PhraseScore)
	}
	if neuro.KeywordScore != 3 {
		t.Errorf("expected keyword score 3 for bulantı, got %d", neuro.KeywordScore)
	}
	if neuro.Score != 8 {
		t.Errorf("expected total score 8, got %d", neuro.Score)
	}
}

func TestScoreAllNegativePenalty(t *testing.T) {
	cat := testCatalog()
	idx := testIndex()
	text := canon.Normalize("idrar yanması var, başım da ağrıyor")
	interp := symptom.Interpret(text, idx)

	result := ScoreAll(text, interp, cat)
	var neuro Score
	for _, s := range result.Scores {
		if s.ID == "neurology" {
			neuro = s
		}
	}
	if neuro.NegativePenalties != -4 {
		t.Errorf("expected -4 negative penalty, got %d", neuro.NegativePenalties)
	}
}

func TestScoreAllOrderingDeterministic(t *testing.T) {
	cat := testCatalog()
	idx := testIndex()
	text := canon.Normalize("Başım ağrıyor")
	interp := symptom.Interpret(text, idx)

	a := ScoreAll(text, interp, cat)
	b := ScoreAll(text, interp, cat)
	for i := range a.Scores {
		if a.Scores[i].ID != b.Scores[i].ID {
			t.Errorf("non-deterministic ordering at %d: %s vs %s", i, a.Scores[i].ID, b.Scores[i].ID)
		}
	}
	if a.Scores[0].ID != "neurology" {
		t.Errorf("expected neurology top, got %s", a.Scores[0].ID)
	}
}
