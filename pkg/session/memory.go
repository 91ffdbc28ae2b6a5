package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/catalog"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/masonry"
)

// MemoryStore is an in-process session store. Views are live objects bound
// to timers, so sessions cannot leave the process that created them.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// WithStoreLogger sets the logger for session lifecycle events.
func WithStoreLogger(l *log.Logger) MemoryOption {
	return func(s *MemoryStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewMemoryStore creates a store whose sessions expire ttl after their last
// access. A ttl of 0 disables expiry.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, view *masonry.View, pager *catalog.Pager) (*Session, error) {
	if view == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "session requires a view")
	}
	sess := New(view, pager)
	now := s.now()
	sess.CreatedAt = now
	sess.lastSeen = now

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.logger.Debug("session created", "id", sess.ID, "sessions", n)
	return sess, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	now := s.now()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok && sess.IsExpired(now, s.ttl) {
		delete(s.sessions, id)
		s.mu.Unlock()
		s.close(sess, "expired")
		return nil, notFound(id)
	}
	s.mu.Unlock()

	if !ok {
		return nil, notFound(id)
	}
	sess.Touch(now)
	return sess, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return notFound(id)
	}
	s.close(sess, "deleted")
	return nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.IsExpired(now, s.ttl) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.close(sess, "expired")
	}
	return len(expired), nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close closes every session.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		s.close(sess, "shutdown")
	}
	return nil
}

// close runs outside s.mu: closing a view waits for its running pass.
func (s *MemoryStore) close(sess *Session, reason string) {
	if err := sess.Close(); err != nil {
		s.logger.Warn("close session source", "id", sess.ID, "error", err)
	}
	s.logger.Debug("session closed", "id", sess.ID, "reason", reason)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
}
