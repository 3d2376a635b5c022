// Package memory provides an in-process search session cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-discover/internal/core/domain"
	"github.com/custodia-labs/sercha-discover/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SessionStore = (*Store)(nil)

// Store keeps sessions in a map until they expire or are swept.
type Store struct {
	mu       sync.Mutex
	sessions map[string]domain.SearchSession
	now      func() time.Time
}

// NewStore creates an empty session cache.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]domain.SearchSession),
		now:      time.Now,
	}
}

func copySession(s *domain.SearchSession) *domain.SearchSession {
	c := *s
	c.Results = append([]domain.FusedHit(nil), s.Results...)
	c.ExternalHits = append([]domain.SearchHit(nil), s.ExternalHits...)
	return &c
}

// Put stores a session.
func (s *Store) Put(_ context.Context, session *domain.SearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *copySession(session)
	return nil
}

// Get returns a live session.
func (s *Store) Get(_ context.Context, id string) (*domain.SearchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.live(id)
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	return copySession(&session), nil
}

// AcquireIngestRef counts one ingestion request against a live session.
func (s *Store) AcquireIngestRef(_ context.Context, id string, maxRefs int) (*domain.SearchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.live(id)
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	if maxRefs > 0 && session.IngestRefs >= maxRefs {
		return nil, domain.ErrInvalidSession
	}
	session.IngestRefs++
	s.sessions[id] = session
	return copySession(&session), nil
}

// ReleaseIngestRef undoes one AcquireIngestRef.
func (s *Store) ReleaseIngestRef(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok && session.IngestRefs > 0 {
		session.IngestRefs--
		s.sessions[id] = session
	}
	return nil
}

// Sweep evicts expired sessions.
func (s *Store) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// live returns the session if present and unexpired. Expired sessions are dropped.
// Caller holds mu.
func (s *Store) live(id string) (domain.SearchSession, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return domain.SearchSession{}, false
	}
	if session.Expired(s.now()) {
		delete(s.sessions, id)
		return domain.SearchSession{}, false
	}
	return session, true
}
