package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Its-donkey/Symphony-apply/internal/ui/forms"
	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/logging"
)

// FetchObserver is told about every config fetch a session completes.
type FetchObserver func(applied bool, err error)

// Session is the page state owned by one visitor.
type Session struct {
	ID   string
	Page *Page
	Form *forms.Controller

	mu       sync.Mutex
	lang     locale.Lang
	lastSeen time.Time
	done     chan struct{}
}

func newSession(id string, lang locale.Lang, now time.Time) *Session {
	done := make(chan struct{})
	close(done)
	return &Session{
		ID:       id,
		Page:     NewPage(),
		Form:     forms.NewController(),
		lang:     lang,
		lastSeen: now,
		done:     done,
	}
}

// Lang returns the session language.
func (s *Session) Lang() locale.Lang {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// SetLang switches the session language.
func (s *Session) SetLang(lang locale.Lang) {
	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()
}

// Fetch starts a config fetch in the background and returns a channel closed
// when it completes. A newer Fetch supersedes one still in flight.
func (s *Session) Fetch(ctx context.Context, fetcher ConfigFetcher, logger *logging.Logger, observe FetchObserver) <-chan struct{} {
	done := make(chan struct{})
	s.mu.Lock()
	s.done = done
	s.mu.Unlock()

	ticket := s.Page.BeginFetch()
	go func() {
		defer close(done)
		applied, err := s.Page.complete(ctx, ticket, fetcher, logger, map[string]any{"session": s.ID})
		if observe != nil {
			observe(applied, err)
		}
	}()
	return done
}

// Wait blocks until the latest fetch completes or d elapses. It reports
// whether the fetch finished.
func (s *Session) Wait(ctx context.Context, d time.Duration) bool {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if d <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Sessions keeps visitor sessions in memory and expires idle ones.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	limit    int

	now   func() time.Time
	newID func() string
}

// NewSessions returns an empty store. A non-positive ttl keeps sessions forever.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Get returns the live session with the given id and refreshes its expiry.
func (s *Sessions) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, false
	}
	sess.touch(now)
	return sess, true
}

// SetLimit caps the number of stored sessions. Zero or less means no cap.
func (s *Sessions) SetLimit(n int) {
	s.mu.Lock()
	s.limit = n
	s.mu.Unlock()
}

// Create registers a new session using lang as its initial language. At the
// limit, expired sessions are dropped first, then the least recently seen.
func (s *Sessions) Create(lang locale.Lang) *Session {
	now := s.now()
	sess := newSession(s.newID(), lang, now)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limit > 0 && len(s.sessions) >= s.limit {
		s.sweepLocked(now)
		for len(s.sessions) >= s.limit {
			s.evictOldestLocked()
		}
	}
	s.sessions[sess.ID] = sess
	return sess
}

func (s *Sessions) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range s.sessions {
		if seen := sess.idleSince(); oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	delete(s.sessions, oldestID)
}

// Len returns the number of stored sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Sessions) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("session", "expired sessions removed", map[string]any{"count": n, "active": s.Len()})
			}
		}
	}
}

func (s *Sessions) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.idleSince()) > s.ttl
}
