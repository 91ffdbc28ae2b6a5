// Package session keeps live masonry views for API clients.
//
// A client that scrolls through a large collection creates a session once
// and then streams viewport changes to it. The session owns a
// [masonry.View], so the server holds the layout state between requests
// and answers each scroll with the visible set only.
//
// Sessions expire after a period without access. Removing a session closes
// its view: a layout pass that is still scheduled for it does nothing.
//
// # Usage
//
//	store := session.NewMemoryStore(session.DefaultTTL)
//	sess, err := store.Create(ctx, view, pager)
//
//	sess, err = store.Get(ctx, id)
//	sess.View.Scroll(top)
//	sess.LoadMore(ctx)
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/masonry/pkg/catalog"
	"github.com/matzehuels/masonry/pkg/masonry"
)

// Default durations.
const (
	// DefaultTTL is how long a session lives without being accessed.
	DefaultTTL = 30 * time.Minute

	// DefaultCleanupInterval is how often Janitor sweeps expired sessions.
	DefaultCleanupInterval = time.Minute
)

// Session is one client's live view.
type Session struct {
	ID        string
	View      *masonry.View
	CreatedAt time.Time

	// Pager feeds the view from its source as the client nears the end of
	// the track. It is nil for sessions created with a fixed item list.
	Pager *catalog.Pager

	mu       sync.Mutex
	lastSeen time.Time
}

// New creates a session with a random ID.
func New(view *masonry.View, pager *catalog.Pager) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		View:      view,
		Pager:     pager,
		CreatedAt: now,
		lastSeen:  now,
	}
}

// LastSeen returns the time of the last access.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Touch records an access at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.After(s.lastSeen) {
		s.lastSeen = t
	}
}

// IsExpired reports whether the session has not been accessed within ttl
// of now.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastSeen()) > ttl
}

// LoadMore fetches the next batch from the pager when the view is near the
// end of its track, and appends it to the view. It returns the number of
// items appended. A fetch already in flight or an exhausted pager appends
// nothing.
func (s *Session) LoadMore(ctx context.Context) (int, error) {
	if s.Pager == nil || s.Pager.Exhausted() || !s.View.NearEnd() {
		return 0, nil
	}
	batch, err := s.Pager.Next(ctx)
	if err != nil {
		return 0, err
	}
	if len(batch) > 0 {
		s.View.AppendItems(batch...)
	}
	return len(batch), nil
}

// Close closes the view and the pager's source.
func (s *Session) Close() error {
	s.View.Close()
	if s.Pager != nil {
		return s.Pager.Source().Close()
	}
	return nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Create registers a new session for view.
	Create(ctx context.Context, view *masonry.View, pager *catalog.Pager) (*Session, error)

	// Get returns the session and records the access. Missing and expired
	// sessions yield an ErrCodeSessionNotFound error.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete closes and removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup closes and removes expired sessions and returns how many.
	Cleanup(ctx context.Context) (int, error)
}

// Janitor runs store.Cleanup every interval until ctx is done.
func Janitor(ctx context.Context, store Store, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := store.Cleanup(ctx); err != nil {
				return err
			}
		}
	}
}
