// Package triage implements the orchestrator and turn handler (C9): the
// session state machine that combines the canonicalizer, symptom
// interpreter, free-text parser, candidate generator, specialty scorer,
// decision merger, question selector and safety policy into one envelope
// per turn.
package triage

import "time"

// EnvelopeType discriminates the turn handler's return value.
type EnvelopeType string

const (
	Question  EnvelopeType = "QUESTION"
	Result    EnvelopeType = "RESULT"
	Emergency EnvelopeType = "EMERGENCY"
	SameDay   EnvelopeType = "SAME_DAY"
	Error     EnvelopeType = "ERROR"
)

// Profile is the session's context-question answers.
type Profile struct {
	Age      *int     `json:"age,omitempty"`
	Sex      *string  `json:"sex,omitempty"`
	Pregnant *bool    `json:"pregnant,omitempty"`
	Chronic  []string `json:"chronic,omitempty"`
}

// ParsedAnswer is the free-text parser's output for one answered canonical.
type ParsedAnswer struct {
	DurationDays  *int    `json:"duration_days,omitempty"`
	Severity0To10 *int    `json:"severity_0_10,omitempty"`
	Timing        *string `json:"timing,omitempty"`
}

// Debug carries scoring/merger/selector traces for auditability.
type Debug struct {
	CandidateScores  []CandidateTrace  `json:"candidate_scores,omitempty"`
	SpecialtyScores  []SpecialtyTrace  `json:"specialty_scores,omitempty"`
	DecisionRanking  []DecisionTrace   `json:"decision_ranking,omitempty"`
}

type CandidateTrace struct {
	DiseaseLabel string  `json:"disease_label"`
	Score        float64 `json:"score"`
}

type SpecialtyTrace struct {
	ID           string `json:"id"`
	Score        int    `json:"score"`
	KeywordScore int    `json:"keyword_score"`
	PhraseScore  int    `json:"phrase_score"`
}

type DecisionTrace struct {
	SpecialtyID string  `json:"specialty_id"`
	Final       float64 `json:"final"`
	RulesScore  int     `json:"rules_score"`
	Prior       float64 `json:"prior"`
}

// Session is the full mutable state the turn handler owns. It is opaque
// to the store beyond load/save/append.
type Session struct {
	SessionID string    `json:"session_id"`
	Locale    string    `json:"locale"`
	TurnIndex int       `json:"turn_index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile Profile `json:"profile"`

	// NormalizedText accumulates every turn's normalized user_message, so
	// the symptom interpreter and specialty scorer see the full session's
	// evidence rather than only the latest message.
	NormalizedText string `json:"normalized_text"`

	KnownSymptoms   map[string]bool `json:"known_symptoms"`
	DeniedSymptoms  map[string]bool `json:"denied_symptoms"`
	AskedCanonicals []string        `json:"asked_canonicals"`

	Answers       map[string]string       `json:"answers"`
	ParsedAnswers map[string]ParsedAnswer `json:"parsed_answers"`

	AskedContextIDs map[string]bool `json:"asked_context_ids"`
	LastContextID   string          `json:"last_context_id,omitempty"`

	AskedRedFlagIDs map[string]bool `json:"asked_red_flag_ids"`

	LastQuestion *QuestionPayload `json:"last_question,omitempty"`

	EnvelopeType EnvelopeType `json:"envelope_type,omitempty"`
	StopReason   string       `json:"stop_reason,omitempty"`

	Debug Debug `json:"debug"`

	// lat/lon are the current turn's optional location hint, carried
	// in-memory only for the facility lookup at RESULT time.
	lat *float64
	lon *float64
}

func newSession(id, locale string, now time.Time) *Session {
	return &Session{
		SessionID:       id,
		Locale:          locale,
		TurnIndex:       0,
		CreatedAt:       now,
		UpdatedAt:       now,
		KnownSymptoms:   map[string]bool{},
		DeniedSymptoms:  map[string]bool{},
		Answers:         map[string]string{},
		ParsedAnswers:   map[string]ParsedAnswer{},
		AskedContextIDs: map[string]bool{},
		AskedRedFlagIDs: map[string]bool{},
	}
}

func (s *Session) terminal() bool {
	return s.EnvelopeType == Result || s.EnvelopeType == Emergency
}

func (s *Session) hasAsked(canonical string) bool {
	for _, c := range s.AskedCanonicals {
		if c == canonical {
			return true
		}
	}
	return false
}

// Meta rides along every envelope.
type Meta struct {
	DisclaimerTR  string          `json:"disclaimer_tr"`
	SameDayBanner string          `json:"same_day_banner_tr,omitempty"`
	Facility      []FacilityEntry `json:"facility,omitempty"`
}

// FacilityEntry mirrors facility.Entry for the wire payload.
type FacilityEntry struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Address    string   `json:"address"`
	DistanceKM *float64 `json:"distance_km,omitempty"`
}

// Envelope is the single discriminated return value of a turn.
type Envelope struct {
	EnvelopeType EnvelopeType `json:"envelope_type"`
	SessionID    string       `json:"session_id"`
	TurnIndex    int          `json:"turn_index"`
	Payload      any          `json:"payload"`
	Meta         Meta         `json:"meta"`
}

type QuestionPayload struct {
	QuestionID   string   `json:"question_id"`
	Canonical    string   `json:"canonical"`
	QuestionTR   string   `json:"question_tr"`
	AnswerType   string   `json:"answer_type"`
	ChoicesTR    []string `json:"choices_tr,omitempty"`
	WhyAskingTR  string   `json:"why_asking_tr,omitempty"`
}

type RecommendedSpecialty struct {
	ID     string `json:"id"`
	NameTR string `json:"name_tr"`
}

type TopCondition struct {
	DiseaseLabel string  `json:"disease_label"`
	Score0To1    float64 `json:"score_0_1"`
}

type ResultPayload struct {
	Urgency              string               `json:"urgency"`
	RecommendedSpecialty RecommendedSpecialty `json:"recommended_specialty"`
	TopConditions        []TopCondition       `json:"top_conditions"`
	DoctorReadySummaryTR []string             `json:"doctor_ready_summary_tr"`
	SafetyNotesTR        []string             `json:"safety_notes_tr"`
	Confidence0To1       float64              `json:"confidence_0_1"`
	ConfidenceLabelTR    string               `json:"confidence_label_tr"`
	ConfidenceExplainTR  string               `json:"confidence_explain_tr"`
	WhySpecialtyTR       []string             `json:"why_specialty_tr"`
	StopReason           string               `json:"stop_reason"`
}

type EmergencyPayload struct {
	Urgency        string   `json:"urgency"`
	ReasonTR       string   `json:"reason_tr"`
	InstructionsTR []string `json:"instructions_tr"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	MessageTR string `json:"message_tr"`
	Retryable bool   `json:"retryable"`
}

// AnswerInput is the request's answer to the last emitted question.
type AnswerInput struct {
	Canonical string
	Value     string
}

// ProfileInput is the request's optional context-profile patch.
type ProfileInput struct {
	Age      *int
	Sex      *string
	Pregnant *bool
	Chronic  []string
}

// TurnRequest is the external, transport-agnostic turn input (§6.1).
type TurnRequest struct {
	SessionID   string
	Locale      string
	UserMessage string
	Answer      *AnswerInput
	Profile     *ProfileInput
	Lat         *float64
	Lon         *float64
}
