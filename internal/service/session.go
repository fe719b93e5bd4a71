package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"exposureserver/internal/service/exposure"
)

var (
	// ErrUnknownSession is returned for session IDs the server never issued or already pruned.
	ErrUnknownSession = errors.New("unknown session")
	// ErrFeedbackAlreadySubmitted is returned on a second submission for the same analysis.
	ErrFeedbackAlreadySubmitted = errors.New("feedback already submitted for this analysis")
	// ErrNoAnalysis is returned when feedback arrives before any photo was analyzed.
	ErrNoAnalysis = errors.New("no photo analyzed in this session")
)

// Session holds the per-user state between an analysis and its feedback.
type Session struct {
	ID                string
	Uploaded          bool
	FeedbackSubmitted bool
	LastAnalysis      *exposure.Recommendation
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SessionStore keeps sessions in memory keyed by ID.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns a copy of the session.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// GetOrCreate returns the session for id. An empty or unknown id gets a
// new session with a freshly generated ID.
func (s *SessionStore) GetOrCreate(id string) Session {
	if id != "" {
		s.mu.RLock()
		session, exists := s.sessions[id]
		s.mu.RUnlock()
		if exists {
			return *session
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	session := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	s.sessions[session.ID] = session
	return *session
}

// RecordAnalysis stores a new analysis and re-opens the session for feedback.
func (s *SessionStore) RecordAnalysis(id string, rec exposure.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	session.Uploaded = true
	session.FeedbackSubmitted = false
	session.LastAnalysis = &rec
	session.UpdatedAt = s.now()
	return nil
}

// BeginFeedback checks that the session may submit feedback and reserves
// the submission. Call Release if the write then fails.
func (s *SessionStore) BeginFeedback(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	switch {
	case !ok:
		return ErrUnknownSession
	case !session.Uploaded:
		return ErrNoAnalysis
	case session.FeedbackSubmitted:
		return ErrFeedbackAlreadySubmitted
	}
	session.FeedbackSubmitted = true
	session.UpdatedAt = s.now()
	return nil
}

// Release undoes BeginFeedback after a failed write.
func (s *SessionStore) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.FeedbackSubmitted = false
	}
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune removes sessions idle for longer than ttl and returns how many were removed.
func (s *SessionStore) Prune(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run prunes idle sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Prune(ttl)
		case <-ctx.Done():
			return
		}
	}
}
