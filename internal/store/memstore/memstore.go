// Package memstore is an in-memory implementation of triage.Store, used
// for tests and for running the orchestrator without a database.
package memstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"pretriage/internal/triage"
)

type event struct {
	envelopeType triage.EnvelopeType
	payload      any
}

// Store is a process-local, goroutine-safe triage.Store.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*triage.Session
	events   map[string][]event
	locks    map[string]*sync.Mutex
}

func New() *Store {
	return &Store{
		sessions: map[string]*triage.Session{},
		events:   map[string][]event{},
		locks:    map[string]*sync.Mutex{},
	}
}

func (s *Store) CreateID() string {
	return uuid.New().String()
}

func (s *Store) Load(_ context.Context, sessionID string) (*triage.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, triage.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) Save(_ context.Context, sess *triage.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.SessionID] = &cp
	return nil
}

func (s *Store) AppendEvent(_ context.Context, sessionID string, envelopeType triage.EnvelopeType, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], event{envelopeType: envelopeType, payload: payload})
	return nil
}

func (s *Store) Lock(sessionID string) (func(), bool) {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	s.mu.Unlock()

	if !l.TryLock() {
		return nil, false
	}
	return l.Unlock, true
}
