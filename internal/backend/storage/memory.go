package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps applications in memory; used for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	apps  []Application
	byKey map[string]int
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: make(map[string]int), now: time.Now}
}

// EnsureSchema is a no-op for the in-memory store.
func (s *MemoryStore) EnsureSchema(context.Context) error {
	return nil
}

// Create stores app, assigning an ID and timestamp when missing.
func (s *MemoryStore) Create(_ context.Context, app Application) (Application, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.IdempotencyKey != "" {
		if idx, ok := s.byKey[app.IdempotencyKey]; ok {
			return s.apps[idx], false, nil
		}
	}
	app = stamp(app, s.now)
	s.apps = append(s.apps, app)
	if app.IdempotencyKey != "" {
		s.byKey[app.IdempotencyKey] = len(s.apps) - 1
	}
	return app, true, nil
}

// Get returns the application with the given ID.
func (s *MemoryStore) Get(_ context.Context, id string) (Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, app := range s.apps {
		if app.ID == id {
			return app, nil
		}
	}
	return Application{}, ErrNotFound
}

// List returns every application in submission order.
func (s *MemoryStore) List(context.Context) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Application, len(s.apps))
	copy(out, s.apps)
	return out, nil
}

func stamp(app Application, now func() time.Time) Application {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now().UTC()
	}
	return app
}
