package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"pretriage/internal/report"
	"pretriage/internal/triage"
)

type fakeTelegram struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTelegram) SendDocument(chatID int64, fileData []byte, fileName string) error {
	return nil
}

func TestNotifySendsMessageOnResult(t *testing.T) {
	tg := &fakeTelegram{}
	reportSvc := report.NewService(tg, 42)
	d := NewDispatcher(tg, reportSvc, 42)

	sess := &triage.Session{SessionID: "s1", CreatedAt: time.Now()}
	env := triage.Envelope{
		EnvelopeType: triage.Result,
		Payload: triage.ResultPayload{
			RecommendedSpecialty: triage.RecommendedSpecialty{ID: "neurology", NameTR: "Nöroloji"},
			Urgency:              "ROUTINE",
		},
	}

	d.Notify(context.Background(), sess, env)

	tg.mu.Lock()
	defer tg.mu.Unlock()
	if len(tg.messages) != 1 {
		t.Fatalf("messages sent = %d, want 1", len(tg.messages))
	}
}

func TestNotifyIgnoresQuestionEnvelopes(t *testing.T) {
	tg := &fakeTelegram{}
	reportSvc := report.NewService(tg, 42)
	d := NewDispatcher(tg, reportSvc, 42)

	sess := &triage.Session{SessionID: "s1", CreatedAt: time.Now()}
	env := triage.Envelope{EnvelopeType: triage.Question, Payload: triage.QuestionPayload{}}

	d.Notify(context.Background(), sess, env)

	tg.mu.Lock()
	defer tg.mu.Unlock()
	if len(tg.messages) != 0 {
		t.Fatalf("messages sent = %d, want 0", len(tg.messages))
	}
}
