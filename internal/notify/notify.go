// Package notify dispatches the doctor-facing notification once a triage
// session reaches a terminal envelope (RESULT or EMERGENCY).
package notify

import (
	"context"
	"fmt"

	"pretriage/internal/report"
	"pretriage/internal/triage"
)

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
}

type Dispatcher struct {
	tgClient     TelegramClient
	reportSvc    *report.Service
	doctorChatID int64
}

func NewDispatcher(tg TelegramClient, reportSvc *report.Service, doctorChatID int64) *Dispatcher {
	return &Dispatcher{tgClient: tg, reportSvc: reportSvc, doctorChatID: doctorChatID}
}

// Notify fires a short chat alert synchronously and generates the PDF
// report in the background, mirroring the turn handler's own "respond
// first, finish the slow work after" split.
func (d *Dispatcher) Notify(ctx context.Context, sess *triage.Session, env triage.Envelope) {
	switch env.EnvelopeType {
	case triage.Emergency:
		payload := env.Payload.(triage.EmergencyPayload)
		msg := fmt.Sprintf("ACİL: görüşme %s -> %s", sess.SessionID, payload.ReasonTR)
		if err := d.tgClient.SendMessage(d.doctorChatID, msg); err != nil {
			fmt.Printf("notify: failed to send emergency alert: %v\n", err)
		}
	case triage.Result:
		payload := env.Payload.(triage.ResultPayload)
		msg := fmt.Sprintf("Görüşme %s tamamlandı -> %s (%s)", sess.SessionID, payload.RecommendedSpecialty.NameTR, payload.Urgency)
		if err := d.tgClient.SendMessage(d.doctorChatID, msg); err != nil {
			fmt.Printf("notify: failed to send result alert: %v\n", err)
		}
	default:
		return
	}

	go func(s triage.Session, e triage.Envelope) {
		bgCtx := context.Background()
		if err := d.reportSvc.SendDoctorReport(bgCtx, &s, e); err != nil {
			fmt.Printf("notify: failed to send doctor report: %v\n", err)
		}
	}(*sess, env)
}
