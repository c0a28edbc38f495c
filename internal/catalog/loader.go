package catalog

import (
	"embed"
	"encoding/json"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

//go:embed data/*.json
var dataFS embed.FS

func loadJSON(name string, v any) error {
	b, err := dataFS.ReadFile("data/" + name)
	if err != nil {
		return errors.Wrapf(err, "read catalog file %s", name)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "parse catalog file %s", name)
	}
	return nil
}

// Load reads and validates every catalog file, returning one aggregated
// error (via multierror) if any file is missing or malformed. A caller
// that only needs a single locale still loads the whole catalog: all of it
// is immutable and shared across sessions.
func Load() (*Catalog, error) {
	var result *multierror.Error
	c := &Catalog{}

	var synFile SynonymFile
	if err := loadJSON("synonyms.json", &synFile); err != nil {
		result = multierror.Append(result, err)
	} else {
		c.Synonyms = synFile.Synonyms
	}

	var specFile SpecialtyFile
	if err := loadJSON("specialty_keywords.json", &specFile); err != nil {
		result = multierror.Append(result, err)
	} else {
		c.Specialties = specFile.Specialties
		c.Scoring = specFile.Scoring
	}

	if err := loadJSON("disease_symptoms.json", &c.DiseaseSymptoms); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("symptom_severity.json", &c.SymptomSeverity); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("kaggle_to_canonical.json", &c.CanonicalToKaggle); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("disease_to_specialty.json", &c.DiseaseToSpecialty); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("question_bank.json", &c.QuestionBank); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("question_skip_rules.json", &c.QuestionSkipRules); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("context_questions.json", &c.ContextQuestions); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("red_flag_questions.json", &c.RedFlagQuestions); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("stop_rules.json", &c.StopRules); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("candidate_generator.json", &c.CandidateGenerator); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("question_selector.json", &c.QuestionSelector); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("emergency_rules.json", &c.EmergencyRules); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("same_day_rules.json", &c.SameDayRules); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("messages.json", &c.Messages); err != nil {
		result = multierror.Append(result, err)
	}

	if err := loadJSON("facilities.json", &c.Facilities); err != nil {
		result = multierror.Append(result, err)
	}

	var parseCanon struct {
		Duration []string `json:"duration"`
		Severity []string `json:"severity"`
		Timing   []string `json:"timing"`
	}
	if err := loadJSON("parse_canonicals.json", &parseCanon); err != nil {
		result = multierror.Append(result, err)
	} else {
		c.ParseDuration = toSet(parseCanon.Duration)
		c.ParseSeverity = toSet(parseCanon.Severity)
		c.ParseTiming = toSet(parseCanon.Timing)
	}

	if err := loadJSON("duration_units.json", &c.DurationUnits); err != nil {
		result = multierror.Append(result, err)
	}

	var sevLex struct {
		Values map[string]int                 `json:"values"`
		Locale map[string]map[string][]string `json:"-"`
	}
	rawSev := map[string]json.RawMessage{}
	if err := loadJSON("severity_lexicon.json", &rawSev); err != nil {
		result = multierror.Append(result, err)
	} else {
		c.SeverityWords = map[string]map[string][]string{}
		for key, raw := range rawSev {
			if key == "values" {
				if err := json.Unmarshal(raw, &sevLex.Values); err != nil {
					result = multierror.Append(result, errors.Wrap(err, "parse severity_lexicon.json values"))
				}
				continue
			}
			var words map[string][]string
			if err := json.Unmarshal(raw, &words); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "parse severity_lexicon.json locale %s", key))
				continue
			}
			c.SeverityWords[key] = words
		}
		c.SeverityValues = sevLex.Values
	}

	if err := loadJSON("timing_lexicon.json", &c.TimingWords); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}
	return c, nil
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
