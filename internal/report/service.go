// Package report renders a doctor-ready PDF summary of a terminal triage
// session and delivers it to the on-call doctor chat.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/signintech/gopdf"

	"pretriage/internal/triage"
)

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
}

func NewService(tg TelegramClient, doctorChatID int64) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
	}
}

// SendDoctorReport builds a PDF from a RESULT or EMERGENCY envelope and
// uploads it to the doctor chat. Envelopes of any other type are ignored.
func (s *Service) SendDoctorReport(ctx context.Context, sess *triage.Session, env triage.Envelope) error {
	switch env.EnvelopeType {
	case triage.Result, triage.Emergency:
	default:
		return nil
	}

	fmt.Printf("generating PDF report for session %s...\n", sess.SessionID)
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	fontPaths := []string{
		"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	}

	var fontErr error
	fontLoaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return fmt.Errorf("failed to load font for PDF, ensure ttf-dejavu is installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return err
	}
	pdf.Cell(nil, "Ön Değerlendirme Raporu")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return err
	}
	pdf.Cell(nil, fmt.Sprintf("Tarih: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Görüşme ID: %s", sess.SessionID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Soru turu sayısı: %s", humanize.Comma(int64(sess.TurnIndex))))
	pdf.Br(25)

	if env.EnvelopeType == triage.Emergency {
		payload := env.Payload.(triage.EmergencyPayload)
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, "ACİL DURUM UYARISI")
		pdf.Br(18)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return err
		}
		writeWrapped(&pdf, payload.ReasonTR)
		pdf.Br(5)
		for _, line := range payload.InstructionsTR {
			writeWrapped(&pdf, "- "+line)
		}
	} else {
		payload := env.Payload.(triage.ResultPayload)

		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, fmt.Sprintf("Önerilen uzmanlık: %s (%s)", payload.RecommendedSpecialty.NameTR, payload.Urgency))
		pdf.Br(18)

		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return err
		}
		pdf.Cell(nil, fmt.Sprintf("Güven: %s (%.0f%%)", payload.ConfidenceLabelTR, payload.Confidence0To1*100))
		pdf.Br(15)
		writeWrapped(&pdf, payload.ConfidenceExplainTR)
		pdf.Br(10)

		if len(payload.TopConditions) > 0 {
			if err := pdf.SetFont("DejaVu", "", 14); err != nil {
				return err
			}
			pdf.Cell(nil, "Olası tanılar:")
			pdf.Br(15)
			if err := pdf.SetFont("DejaVu", "", 11); err != nil {
				return err
			}
			for _, c := range payload.TopConditions {
				writeWrapped(&pdf, fmt.Sprintf("- %s (%.0f%%)", c.DiseaseLabel, c.Score0To1*100))
			}
			pdf.Br(10)
		}

		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, "Doktor özeti:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return err
		}
		if len(payload.DoctorReadySummaryTR) == 0 {
			writeWrapped(&pdf, "Bildirilen belirti bulunamadı.")
		}
		for _, line := range payload.DoctorReadySummaryTR {
			writeWrapped(&pdf, line)
		}
		pdf.Br(10)

		if len(payload.WhySpecialtyTR) > 0 {
			if err := pdf.SetFont("DejaVu", "", 14); err != nil {
				return err
			}
			pdf.Cell(nil, "Uzmanlık gerekçesi:")
			pdf.Br(15)
			if err := pdf.SetFont("DejaVu", "", 11); err != nil {
				return err
			}
			for _, line := range payload.WhySpecialtyTR {
				writeWrapped(&pdf, "- "+line)
			}
		}
	}

	pdf.SetY(270)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return err
	}
	pdf.Cell(nil, fmt.Sprintf("session created %s", humanize.Time(sess.CreatedAt)))

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	fileName := fmt.Sprintf("report_%s.pdf", sess.SessionID)
	if err := s.tgClient.SendDocument(s.doctorChatID, buf.Bytes(), fileName); err != nil {
		return fmt.Errorf("failed to send telegram document: %w", err)
	}
	return nil
}

func writeWrapped(pdf *gopdf.GoPdf, text string) {
	lines, _ := pdf.SplitText(text, 500)
	if len(lines) == 0 {
		lines = []string{text}
	}
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}
}
