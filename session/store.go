package session

import (
	"fmt"
	"sync"
	"time"

	apperrors "smart-response/errors"

	"github.com/hashicorp/golang-lru/simplelru"
	"go.uber.org/zap"
)

// DefaultIdleTimeout is how long a walkthrough may sit untouched.
const DefaultIdleTimeout = 30 * time.Minute

// Key identifies the conversation a walkthrough belongs to.
type Key struct {
	ChannelID string
	UserID    string
}

// String renders the key without ambiguity between channel and user ids.
func (k Key) String() string {
	return fmt.Sprintf("%d:%s:%s", len(k.ChannelID), k.ChannelID, k.UserID)
}

// Session is a multi-step answer being paged through.
type Session struct {
	Steps       []string
	Index       int
	LastTouched time.Time
	Query       string
}

// Step is one page of a walkthrough.
type Step struct {
	Text    string
	Number  int // 1-based
	Total   int
	HasMore bool
}

// Store holds at most one walkthrough per key. Every operation takes the
// same mutex, so the generate path, the advance path and the sweep never
// interleave.
type Store struct {
	mu          sync.Mutex
	sessions    *simplelru.LRU
	idleTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a store bounded to maxEntries sessions. When full, the
// least recently used session is dropped.
func NewStore(logger *zap.Logger, idleTimeout time.Duration, maxEntries int, opts ...Option) (*Store, error) {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	lru, err := simplelru.NewLRU(maxEntries, nil)
	if err != nil {
		return nil, apperrors.WrapErrorf(apperrors.ErrConfiguration, "session store capacity %d", maxEntries)
	}
	s := &Store{
		sessions:    lru,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IdleTimeout returns the expiry used by both Advance and Sweep.
func (s *Store) IdleTimeout() time.Duration { return s.idleTimeout }

// Put starts a walkthrough at its first step, replacing any existing one for
// the key.
func (s *Store) Put(key Key, steps []string, query string) error {
	if len(steps) < 2 {
		return apperrors.WrapErrorf(apperrors.ErrInvalidInput, "walkthrough needs at least 2 steps, got %d", len(steps))
	}
	sess := &Session{
		Steps:       append([]string(nil), steps...),
		LastTouched: s.now(),
		Query:       query,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if evicted := s.sessions.Add(key, sess); evicted {
		s.logger.Warn("Session store full, dropped least recently used walkthrough",
			zap.Int("capacity", s.sessions.Len()))
	}
	return nil
}

// Advance moves to the next step. The session is deleted when the returned
// step is the last one, or when it was found idle past the timeout.
func (s *Store) Advance(key Key) (Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.sessions.Get(key)
	if !ok {
		return Step{}, apperrors.WrapErrorf(apperrors.ErrSessionNotFound, "advance %s", key)
	}
	sess := v.(*Session)

	now := s.now()
	if now.Sub(sess.LastTouched) > s.idleTimeout {
		s.sessions.Remove(key)
		return Step{}, apperrors.WrapErrorf(apperrors.ErrSessionExpired, "advance %s", key)
	}

	sess.Index++
	sess.LastTouched = now
	hasMore := sess.Index < len(sess.Steps)-1
	step := Step{
		Text:    sess.Steps[sess.Index],
		Number:  sess.Index + 1,
		Total:   len(sess.Steps),
		HasMore: hasMore,
	}
	if !hasMore {
		s.sessions.Remove(key)
	}
	return step, nil
}

// Peek returns a copy of the session without touching it.
func (s *Store) Peek(key Key) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sessions.Peek(key)
	if !ok {
		return Session{}, false
	}
	sess := *v.(*Session)
	sess.Steps = append([]string(nil), sess.Steps...)
	return sess, true
}

// Delete removes a session. Deleting a missing key is a no-op.
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(key)
}

// Sweep deletes every session idle longer than the timeout and returns how
// many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, k := range s.sessions.Keys() {
		v, ok := s.sessions.Peek(k)
		if !ok {
			continue
		}
		if now.Sub(v.(*Session).LastTouched) > s.idleTimeout {
			s.sessions.Remove(k)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Len()
}
