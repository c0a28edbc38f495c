package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"pretriage/internal/triage"
)

func TestLoadUnknownSessionReturnsErrNotFound(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background(), "missing")
	if !errors.Is(err, triage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := New()
	id := s.CreateID()
	if id == "" {
		t.Fatalf("CreateID returned empty string")
	}

	sess := &triage.Session{
		SessionID:       id,
		Locale:          "tr-TR",
		TurnIndex:       2,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
		KnownSymptoms:   map[string]bool{"baş ağrısı": true},
		DeniedSymptoms:  map[string]bool{},
		AskedCanonicals: []string{"baş ağrısı"},
		Answers:         map[string]string{},
		ParsedAnswers:   map[string]triage.ParsedAnswer{},
		AskedContextIDs: map[string]bool{"age": true},
		AskedRedFlagIDs: map[string]bool{},
	}
	if err := s.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SessionID != id || got.TurnIndex != 2 || !got.KnownSymptoms["baş ağrısı"] {
		t.Fatalf("loaded session mismatch: %+v", got)
	}

	// The returned session must be a copy: mutating it must not affect
	// what a later Load call returns.
	got.TurnIndex = 99
	again, err := s.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if again.TurnIndex != 2 {
		t.Fatalf("mutation of loaded copy leaked into store: turn index = %d", again.TurnIndex)
	}
}

func TestAppendEventAccumulates(t *testing.T) {
	s := New()
	id := s.CreateID()
	if err := s.AppendEvent(context.Background(), id, triage.Question, triage.QuestionPayload{QuestionID: "age"}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if err := s.AppendEvent(context.Background(), id, triage.Result, triage.ResultPayload{Urgency: "ROUTINE"}); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if len(s.events[id]) != 2 {
		t.Fatalf("events = %d, want 2", len(s.events[id]))
	}
}

func TestLockRejectsConcurrentHolder(t *testing.T) {
	s := New()
	unlock, ok := s.Lock("sess-1")
	if !ok {
		t.Fatalf("expected first Lock to succeed")
	}

	if _, ok := s.Lock("sess-1"); ok {
		t.Fatalf("expected second Lock on the same session to be rejected")
	}

	unlock()

	if unlock2, ok := s.Lock("sess-1"); !ok {
		t.Fatalf("expected Lock to succeed again after unlock")
	} else {
		unlock2()
	}
}

func TestLockIsPerSession(t *testing.T) {
	s := New()
	unlockA, ok := s.Lock("a")
	if !ok {
		t.Fatalf("expected Lock(a) to succeed")
	}
	defer unlockA()

	unlockB, ok := s.Lock("b")
	if !ok {
		t.Fatalf("expected Lock(b) to succeed independently of a")
	}
	unlockB()
}
