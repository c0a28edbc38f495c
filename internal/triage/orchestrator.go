package triage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"pretriage/internal/candidate"
	"pretriage/internal/canon"
	"pretriage/internal/catalog"
	"pretriage/internal/decision"
	"pretriage/internal/facility"
	"pretriage/internal/freetext"
	"pretriage/internal/message"
	"pretriage/internal/question"
	"pretriage/internal/safety"
	"pretriage/internal/specialty"
	"pretriage/internal/symptom"
)

// Orchestrator is the turn handler (C9): the session state machine that
// combines every other core component into one envelope per call.
type Orchestrator struct {
	Catalog      *catalog.Catalog
	Store        Store
	symptomIndex *symptom.Index
}

func New(cat *catalog.Catalog, st Store) *Orchestrator {
	return &Orchestrator{
		Catalog:      cat,
		Store:        st,
		symptomIndex: symptom.BuildIndex(cat.Synonyms),
	}
}

// HandleTurn is the single public operation: one call, one transition.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) Envelope {
	locale := req.Locale
	if locale == "" {
		locale = catalog.DefaultLocale
	}
	if !o.Catalog.HasLocale(locale) {
		return o.errorEnvelope(req.SessionID, 0, locale, "CATALOG_ERROR", false)
	}
	if req.UserMessage == "" && req.Answer == nil {
		return o.errorEnvelope(req.SessionID, 0, locale, "EMPTY_INPUT", true)
	}

	sess, unlock, errEnv := o.loadOrCreate(ctx, req, locale)
	if errEnv != nil {
		return *errEnv
	}
	if unlock != nil {
		defer unlock()
	}

	sess.lat, sess.lon = req.Lat, req.Lon

	if req.Profile != nil {
		applyProfilePatch(sess, req.Profile)
	}

	if err := o.ingestAnswer(sess, req.Answer); err != nil {
		return o.errorEnvelope(sess.SessionID, sess.TurnIndex, sess.Locale, "BAD_STATE", false)
	}

	o.ingestFreeText(sess, req.UserMessage)

	cands, specs, ranked := o.runPipelines(sess)

	durationDays := map[string]int{}
	severity0To10 := map[string]int{}
	for c, pa := range sess.ParsedAnswers {
		if pa.DurationDays != nil {
			durationDays[c] = *pa.DurationDays
		}
		if pa.Severity0To10 != nil {
			severity0To10[c] = *pa.Severity0To10
		}
	}

	if rule, fired := safety.EvaluateEmergency(sess.KnownSymptoms, durationDays, severity0To10, o.Catalog); fired {
		return o.emitEmergency(ctx, sess, rule)
	}

	sameDay := safety.EvaluateSameDay(sess.KnownSymptoms, durationDays, o.Catalog)
	var sameDayBanner string
	if len(sameDay) > 0 {
		sameDayBanner = catalog.TextFor(sameDay[0].Banner, sess.Locale)
	}

	topSpecialtyID := ""
	if len(ranked) > 0 {
		topSpecialtyID = ranked[0].SpecialtyID
	}
	topDiseaseLabel := ""
	if len(cands) > 0 {
		topDiseaseLabel = cands[0].DiseaseLabel
	}
	maxQ := safety.MaxQuestions(topSpecialtyID, topDiseaseLabel, o.Catalog)

	sel := question.SelectNext(
		sess.Locale,
		knownList(sess.KnownSymptoms),
		knownList(sess.DeniedSymptoms),
		question.Profile{Age: sess.Profile.Age, Sex: sess.Profile.Sex, Pregnant: sess.Profile.Pregnant, Chronic: firstOrEmpty(sess.Profile.Chronic)},
		question.Asked{ContextIDs: sess.AskedContextIDs, RedFlagIDs: sess.AskedRedFlagIDs, Canonicals: askedSet(sess.AskedCanonicals)},
		cands,
		o.Catalog,
	)

	stopReason := ""
	switch {
	case sess.TurnIndex >= maxQ:
		stopReason = "max_questions"
	case sel.Kind == "none":
		stopReason = "no_question_available"
	case sel.Kind == "discriminative" && sel.Score < o.Catalog.StopRules.MinExpectedGainFloor:
		stopReason = "min_expected_gain"
	}

	if stopReason != "" {
		return o.emitResult(ctx, sess, cands, specs, ranked, stopReason, sameDayBanner)
	}
	return o.emitQuestion(ctx, sess, sel, sameDayBanner)
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, req TurnRequest, locale string) (*Session, func(), *Envelope) {
	if req.SessionID == "" {
		sess := newSession(o.Store.CreateID(), locale, time.Now())
		return sess, nil, nil
	}

	unlock, ok := o.Store.Lock(req.SessionID)
	if !ok {
		env := o.errorEnvelope(req.SessionID, 0, locale, "BAD_STATE", false)
		return nil, nil, &env
	}

	sess, err := o.Store.Load(ctx, req.SessionID)
	if errors.Is(err, ErrNotFound) {
		unlock()
		env := o.errorEnvelope(req.SessionID, 0, locale, "BAD_SESSION", false)
		return nil, nil, &env
	}
	if err != nil {
		unlock()
		env := o.errorEnvelope(req.SessionID, 0, locale, "INTERNAL", true)
		return nil, nil, &env
	}
	if sess.terminal() {
		unlock()
		env := o.errorEnvelope(sess.SessionID, sess.TurnIndex, sess.Locale, "BAD_STATE", false)
		return nil, nil, &env
	}
	return sess, unlock, nil
}

func applyProfilePatch(sess *Session, p *ProfileInput) {
	if p.Age != nil {
		sess.Profile.Age = p.Age
	}
	if p.Sex != nil {
		sess.Profile.Sex = p.Sex
	}
	if p.Pregnant != nil {
		sess.Profile.Pregnant = p.Pregnant
	}
	if len(p.Chronic) > 0 {
		sess.Profile.Chronic = p.Chronic
	}
}

func (o *Orchestrator) ingestAnswer(sess *Session, answer *AnswerInput) error {
	if answer == nil {
		return nil
	}

	if sess.LastContextID != "" && answer.Canonical == sess.LastContextID {
		applyContextAnswer(sess, sess.LastContextID, answer.Value)
		sess.LastContextID = ""
		return nil
	}

	if !sess.hasAsked(answer.Canonical) {
		return fmt.Errorf("triage: answer for unasked canonical %q", answer.Canonical)
	}

	norm := canon.Normalize(answer.Value)
	switch norm {
	case "evet", "yes":
		o.setKnown(sess, answer.Canonical)
	case "hayir", "hayır", "no":
		setDenied(sess, answer.Canonical)
	}

	sess.Answers[answer.Canonical] = answer.Value
	parsed := parseAnswer(answer.Canonical, answer.Value, sess.Locale, o.Catalog)
	if parsed.DurationDays != nil || parsed.Severity0To10 != nil || parsed.Timing != nil {
		sess.ParsedAnswers[answer.Canonical] = parsed
	}
	return nil
}

func applyContextAnswer(sess *Session, contextID, value string) {
	switch contextID {
	case "age":
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			sess.Profile.Age = &n
		}
	case "sex":
		v := canon.Normalize(value)
		sess.Profile.Sex = &v
	case "pregnancy":
		v := canon.Normalize(value)
		b := v == "evet" || v == "yes"
		sess.Profile.Pregnant = &b
	case "chronic":
		sess.Profile.Chronic = append(sess.Profile.Chronic, value)
	}
}

func (o *Orchestrator) ingestFreeText(sess *Session, text string) {
	if text == "" {
		return
	}
	norm := canon.Normalize(text)
	if sess.NormalizedText == "" {
		sess.NormalizedText = norm
	} else {
		sess.NormalizedText = sess.NormalizedText + " " + norm
	}

	interp := symptom.Interpret(sess.NormalizedText, o.symptomIndex)
	for _, c := range interp.Canonicals {
		o.setKnown(sess, c)
	}
}

func (o *Orchestrator) setKnown(sess *Session, canonical string) {
	if sess.DeniedSymptoms[canonical] {
		if !o.Catalog.StopRules.AllowAffirmOverridesDenial {
			return
		}
		delete(sess.DeniedSymptoms, canonical)
	}
	sess.KnownSymptoms[canonical] = true
}

func setDenied(sess *Session, canonical string) {
	delete(sess.KnownSymptoms, canonical)
	sess.DeniedSymptoms[canonical] = true
}

func (o *Orchestrator) runPipelines(sess *Session) ([]candidate.Candidate, specialty.Result, []decision.Ranked) {
	known := knownList(sess.KnownSymptoms)
	cands := candidate.Generate(known, o.Catalog)
	interp := symptom.Interpret(sess.NormalizedText, o.symptomIndex)
	specs := specialty.ScoreAll(sess.NormalizedText, interp, o.Catalog)
	ranked := decision.Merge(cands, specs.Scores, o.Catalog)

	sess.Debug = Debug{}
	for _, c := range cands {
		sess.Debug.CandidateScores = append(sess.Debug.CandidateScores, CandidateTrace{DiseaseLabel: c.DiseaseLabel, Score: c.Score})
	}
	for _, s := range specs.Scores {
		sess.Debug.SpecialtyScores = append(sess.Debug.SpecialtyScores, SpecialtyTrace{ID: s.ID, Score: s.Score, KeywordScore: s.KeywordScore, PhraseScore: s.PhraseScore})
	}
	for _, r := range ranked {
		sess.Debug.DecisionRanking = append(sess.Debug.DecisionRanking, DecisionTrace{SpecialtyID: r.SpecialtyID, Final: r.Final, RulesScore: r.RulesScore, Prior: r.Prior})
	}
	return cands, specs, ranked
}

func (o *Orchestrator) emitEmergency(ctx context.Context, sess *Session, rule catalog.EmergencyRule) Envelope {
	sess.TurnIndex++
	sess.EnvelopeType = Emergency
	sess.StopReason = ""

	payload := EmergencyPayload{
		Urgency:        "EMERGENCY",
		ReasonTR:       catalog.TextFor(rule.Reason, sess.Locale),
		InstructionsTR: catalog.TextListFor(rule.Instructions, sess.Locale),
	}
	env := Envelope{
		EnvelopeType: Emergency,
		SessionID:    sess.SessionID,
		TurnIndex:    sess.TurnIndex,
		Payload:      payload,
		Meta:         Meta{DisclaimerTR: message.Disclaimer(sess.Locale, o.Catalog)},
	}
	if err := o.persist(ctx, sess, env); err != nil {
		return o.errorEnvelope(sess.SessionID, sess.TurnIndex, sess.Locale, "INTERNAL", true)
	}
	return env
}

func (o *Orchestrator) emitQuestion(ctx context.Context, sess *Session, sel question.Selected, sameDayBanner string) Envelope {
	payload := QuestionPayload{
		QuestionID: sel.ID,
		QuestionTR: sel.Question,
		AnswerType: sel.AnswerType,
		ChoicesTR:  sel.Choices,
	}

	switch sel.Kind {
	case "context":
		sess.AskedContextIDs[sel.ID] = true
		sess.LastContextID = sel.ID
	case "red_flag":
		sess.AskedRedFlagIDs[sel.ID] = true
		sess.AskedCanonicals = append(sess.AskedCanonicals, sel.ID)
		payload.Canonical = sel.ID
		payload.WhyAskingTR = sel.Reason
	case "discriminative":
		sess.AskedCanonicals = append(sess.AskedCanonicals, sel.ID)
		payload.Canonical = sel.ID
	}

	sess.LastQuestion = &payload
	sess.TurnIndex++
	sess.EnvelopeType = Question

	env := Envelope{
		EnvelopeType: Question,
		SessionID:    sess.SessionID,
		TurnIndex:    sess.TurnIndex,
		Payload:      payload,
		Meta:         Meta{DisclaimerTR: message.Disclaimer(sess.Locale, o.Catalog), SameDayBanner: sameDayBanner},
	}
	if err := o.persist(ctx, sess, env); err != nil {
		return o.errorEnvelope(sess.SessionID, sess.TurnIndex, sess.Locale, "INTERNAL", true)
	}
	return env
}

func (o *Orchestrator) emitResult(ctx context.Context, sess *Session, cands []candidate.Candidate, specs specialty.Result, ranked []decision.Ranked, stopReason, sameDayBanner string) Envelope {
	sess.TurnIndex++
	sess.EnvelopeType = Result
	sess.StopReason = stopReason

	var recommended RecommendedSpecialty
	urgency := "ROUTINE"
	if len(ranked) > 0 {
		recommended = RecommendedSpecialty{ID: ranked[0].SpecialtyID, NameTR: specialtyName(ranked[0].SpecialtyID, sess.Locale, o.Catalog)}
		if sameDayBanner != "" {
			urgency = "SAME_DAY"
		} else if isEmergencyAdjacent(ranked[0].SpecialtyID, o.Catalog) {
			urgency = "WITHIN_3_DAYS"
		}
	}

	var top []TopCondition
	for _, c := range cands {
		top = append(top, TopCondition{DiseaseLabel: c.DiseaseLabel, Score0To1: c.Score})
	}

	top1, second := 0.0, 0.0
	if len(cands) > 0 {
		top1 = cands[0].Score
	}
	if len(cands) > 1 {
		second = cands[1].Score
	}
	conf, confLabel := safety.Confidence(top1, second, o.Catalog.StopRules.ConfidenceThresholds)
	gap := top1 - second
	if gap < 0 {
		gap = 0
	}
	explainTemplate := message.Text("confidence_explain_template", sess.Locale, o.Catalog)
	confExplain := fmt.Sprintf(explainTemplate, top1*100, gap*100)

	payload := ResultPayload{
		Urgency:              urgency,
		RecommendedSpecialty: recommended,
		TopConditions:        top,
		DoctorReadySummaryTR: buildDoctorSummary(sess, o.Catalog),
		SafetyNotesTR:        []string{message.Text("safety_note_1", sess.Locale, o.Catalog), message.Text("safety_note_2", sess.Locale, o.Catalog)},
		Confidence0To1:       conf,
		ConfidenceLabelTR:    confLabel,
		ConfidenceExplainTR:  confExplain,
		WhySpecialtyTR:       buildWhySpecialty(specs, ranked, sess.Locale),
		StopReason:           stopReason,
	}

	env := Envelope{
		EnvelopeType: Result,
		SessionID:    sess.SessionID,
		TurnIndex:    sess.TurnIndex,
		Payload:      payload,
		Meta:         Meta{DisclaimerTR: message.Disclaimer(sess.Locale, o.Catalog), SameDayBanner: sameDayBanner},
	}

	if len(ranked) > 0 {
		env.Meta.Facility = lookupFacilityHint(ranked[0].SpecialtyID, sess, o.Catalog)
	}

	if err := o.persist(ctx, sess, env); err != nil {
		return o.errorEnvelope(sess.SessionID, sess.TurnIndex, sess.Locale, "INTERNAL", true)
	}
	return env
}

func isEmergencyAdjacent(specialtyID string, cat *catalog.Catalog) bool {
	for _, id := range cat.StopRules.EmergencySpecialtyIDs {
		if id == specialtyID {
			return true
		}
	}
	return false
}

func specialtyName(id, locale string, cat *catalog.Catalog) string {
	for _, sp := range cat.Specialties {
		if sp.ID == id {
			if len(locale) >= 2 && (locale[:2] == "en") {
				return sp.NameEN
			}
			return sp.NameTR
		}
	}
	return id
}

func buildWhySpecialty(specs specialty.Result, ranked []decision.Ranked, locale string) []string {
	if len(ranked) == 0 || len(specs.Scores) == 0 {
		return nil
	}
	topID := ranked[0].SpecialtyID
	var s specialty.Score
	for _, sc := range specs.Scores {
		if sc.ID == topID {
			s = sc
			break
		}
	}
	var lines []string
	for _, p := range s.MatchedPhrases {
		lines = append(lines, fmt.Sprintf("\"%s\" ifadesi eşleşti", p))
	}
	for _, k := range s.MatchedKeywords {
		lines = append(lines, fmt.Sprintf("\"%s\" anahtar kelimesi eşleşti", k))
	}
	if ranked[0].Prior > 0 {
		lines = append(lines, fmt.Sprintf("olası hastalık eşleşmeleri bu uzmanlığı %.1f puan destekliyor", ranked[0].Prior))
	}
	return lines
}

func buildDoctorSummary(sess *Session, cat *catalog.Catalog) []string {
	var lines []string

	known := knownList(sess.KnownSymptoms)
	sort.Strings(known)
	if len(known) > 0 {
		lines = append(lines, "Bildirilen belirtiler: "+joinComma(known))
	}
	denied := knownList(sess.DeniedSymptoms)
	sort.Strings(denied)
	if len(denied) > 0 {
		lines = append(lines, "Reddedilen belirtiler: "+joinComma(denied))
	}

	var canonicals []string
	for c := range sess.ParsedAnswers {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)
	for _, c := range canonicals {
		pa := sess.ParsedAnswers[c]
		if pa.DurationDays != nil {
			lines = append(lines, fmt.Sprintf("%s süresi: %d gün", c, *pa.DurationDays))
		}
		if pa.Severity0To10 != nil {
			lines = append(lines, fmt.Sprintf("%s şiddeti: %d/10", c, *pa.Severity0To10))
		}
		if pa.Timing != nil {
			lines = append(lines, fmt.Sprintf("%s zamanlaması: %s", c, *pa.Timing))
		}
	}

	var qaCanonicals []string
	for c := range sess.Answers {
		qaCanonicals = append(qaCanonicals, c)
	}
	sort.Strings(qaCanonicals)
	for _, c := range qaCanonicals {
		lines = append(lines, fmt.Sprintf("Soru-cevap: %s -> %s", c, sess.Answers[c]))
	}

	if sess.Profile.Age != nil {
		lines = append(lines, fmt.Sprintf("Yaş: %d", *sess.Profile.Age))
	}
	if sess.Profile.Sex != nil {
		lines = append(lines, "Cinsiyet: "+*sess.Profile.Sex)
	}

	return lines
}

func lookupFacilityHint(specialtyID string, sess *Session, cat *catalog.Catalog) []FacilityEntry {
	q := facility.Query{SpecialtyID: specialtyID, Limit: 3}
	if sess.lat != nil && sess.lon != nil {
		q.Lat = sess.lat
		q.Lon = sess.lon
	}
	entries := facility.Lookup(q, cat)
	out := make([]FacilityEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, FacilityEntry{Name: e.Name, Type: e.Type, Address: e.Address, DistanceKM: e.DistanceKM})
	}
	return out
}

func (o *Orchestrator) errorEnvelope(sessionID string, turnIndex int, locale, code string, retryable bool) Envelope {
	return Envelope{
		EnvelopeType: Error,
		SessionID:    sessionID,
		TurnIndex:    turnIndex,
		Payload: ErrorPayload{
			Code:      code,
			MessageTR: message.Text(code, locale, o.Catalog),
			Retryable: retryable,
		},
		Meta: Meta{DisclaimerTR: message.Disclaimer(locale, o.Catalog)},
	}
}

// persist saves the mutated session and appends the emitted envelope to its
// event log. A failure here must not reach the caller as a normal envelope:
// per §7, an INTERNAL failure is logged, surfaced as ERROR with
// retryable=true, and the session is not advanced.
func (o *Orchestrator) persist(ctx context.Context, sess *Session, env Envelope) error {
	sess.UpdatedAt = time.Now()
	if err := o.Store.Save(ctx, sess); err != nil {
		log.Printf("triage: persist session %s failed: %v", sess.SessionID, err)
		return err
	}
	if err := o.Store.AppendEvent(ctx, sess.SessionID, env.EnvelopeType, env.Payload); err != nil {
		log.Printf("triage: append event for session %s failed: %v", sess.SessionID, err)
		return err
	}
	return nil
}

func parseAnswer(canonical, raw, locale string, cat *catalog.Catalog) ParsedAnswer {
	p := freetext.ParseFreeTextAnswer(canonical, raw, locale, cat)
	return ParsedAnswer{DurationDays: p.DurationDays, Severity0To10: p.Severity0To10, Timing: p.Timing}
}

func knownList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func askedSet(canonicals []string) map[string]bool {
	out := make(map[string]bool, len(canonicals))
	for _, c := range canonicals {
		out[c] = true
	}
	return out
}

func firstOrEmpty(chronic []string) *string {
	if len(chronic) == 0 {
		return nil
	}
	return &chronic[0]
}

func joinComma(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ", "
		}
		out += it
	}
	return out
}
