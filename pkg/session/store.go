package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/models"
)

// DefaultMaxSessions bounds the in-memory store.
const DefaultMaxSessions = 1000

// Store holds analyst sessions in memory. Sessions expire after maxAge of
// inactivity; when the store is full the least recently used one is evicted.
//
// Get returns a copy. Callers change a session only through Update so two
// browser tabs cannot interleave partial writes.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
	maxAge   time.Duration
	maxSize  int
	now      func() time.Time
	onChange func(count int)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxSessions overrides DefaultMaxSessions.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// WithCountObserver is called with the session count after every change.
func WithCountObserver(fn func(count int)) Option {
	return func(s *Store) { s.onChange = fn }
}

// NewStore creates a store whose sessions live for maxAge after last use.
func NewStore(maxAge time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[uuid.UUID]*models.Session),
		maxAge:   maxAge,
		maxSize:  DefaultMaxSessions,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new empty session.
func (s *Store) Create() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSize {
		s.evictLRU()
	}

	sess := models.NewSession(s.now())
	s.sessions[sess.ID] = sess
	s.notify()
	return *sess
}

// Get returns a copy of the session and records activity on it.
func (s *Store) Get(id uuid.UUID) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return models.Session{}, err
	}
	sess.Touch(s.now())
	return *sess, nil
}

// Update applies fn to the stored session under the store lock and returns
// the updated copy. fn must not block.
func (s *Store) Update(id uuid.UUID, fn func(*models.Session) error) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return models.Session{}, err
	}
	if err := fn(sess); err != nil {
		return models.Session{}, err
	}
	sess.Touch(s.now())
	return *sess, nil
}

// Delete removes a session. Unknown IDs are ignored.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.notify()
	}
}

// Len returns the number of live and not yet swept sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.notify()
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// lookup must be called with mu held.
func (s *Store) lookup(id uuid.UUID) (*models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, id)
		s.notify()
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) expired(sess *models.Session, now time.Time) bool {
	return s.maxAge > 0 && now.Sub(sess.LastSeen) > s.maxAge
}

// evictLRU removes the least recently used session.
func (s *Store) evictLRU() {
	var oldestID uuid.UUID
	var oldestTime time.Time

	for id, sess := range s.sessions {
		if oldestID == uuid.Nil || sess.LastSeen.Before(oldestTime) {
			oldestID = id
			oldestTime = sess.LastSeen
		}
	}

	if oldestID != uuid.Nil {
		delete(s.sessions, oldestID)
	}
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange(len(s.sessions))
	}
}
