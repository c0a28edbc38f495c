package triage

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	orch   *Orchestrator
	notify func(sess *Session, env Envelope)
}

// NewHandler wires an Orchestrator to HTTP. onTerminal, if non-nil, is
// invoked after persisting a RESULT or EMERGENCY envelope, letting the
// caller trigger a doctor notification without the handler depending on
// the notify package directly.
func NewHandler(orch *Orchestrator, onTerminal func(sess *Session, env Envelope)) *Handler {
	return &Handler{orch: orch, notify: onTerminal}
}

type turnRequestBody struct {
	SessionID   string        `json:"session_id"`
	Locale      string        `json:"locale"`
	UserMessage string        `json:"user_message"`
	Answer      *AnswerInput  `json:"answer"`
	Profile     *ProfileInput `json:"profile"`
	Lat         *float64      `json:"lat"`
	Lon         *float64      `json:"lon"`
}

func (h *Handler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var body turnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	env := h.orch.HandleTurn(r.Context(), TurnRequest{
		SessionID:   body.SessionID,
		Locale:      body.Locale,
		UserMessage: body.UserMessage,
		Answer:      body.Answer,
		Profile:     body.Profile,
		Lat:         body.Lat,
		Lon:         body.Lon,
	})

	if h.notify != nil && (env.EnvelopeType == Result || env.EnvelopeType == Emergency) {
		if sess, err := h.orch.Store.Load(r.Context(), env.SessionID); err == nil {
			h.notify(sess, env)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(env)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/triage/turn", h.HandleTurn)
}
