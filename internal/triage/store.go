package triage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Load when session_id is unknown.
var ErrNotFound = errors.New("triage: session not found")

// Store is the session store interface (C12): load/save of session state
// plus an append-only per-session event log and opaque id minting. A
// concrete Store also owns the per-session mutex described in §5: Lock
// must serialize concurrent turns for the same session_id and report
// failure (rather than block indefinitely) when that is not possible.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	AppendEvent(ctx context.Context, sessionID string, envelopeType EnvelopeType, payload any) error
	CreateID() string

	// Lock acquires the per-session mutex for sessionID, returning an
	// unlock function and true on success, or false if a turn for this
	// session is already in flight.
	Lock(sessionID string) (unlock func(), ok bool)
}
