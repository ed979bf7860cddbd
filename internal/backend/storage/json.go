package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONStore persists applications to a JSON file on disk.
type JSONStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewJSONStore returns a store that reads and writes path.
func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("storage: data file path is required")
	}
	return &JSONStore{path: path, now: time.Now}, nil
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

// EnsureSchema creates the data file with an empty list when missing.
func (s *JSONStore) EnsureSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte("[]\n"), 0o644)
}

// Create appends app to the file unless its idempotency key was seen before.
func (s *JSONStore) Create(_ context.Context, app Application) (Application, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	apps, err := s.read()
	if err != nil {
		return Application{}, false, err
	}
	if app.IdempotencyKey != "" {
		for _, existing := range apps {
			if existing.IdempotencyKey == app.IdempotencyKey {
				return existing, false, nil
			}
		}
	}
	app = stamp(app, s.now)
	apps = append(apps, app)
	if err := s.write(apps); err != nil {
		return Application{}, false, err
	}
	return app, true, nil
}

// Get returns the application with the given ID.
func (s *JSONStore) Get(_ context.Context, id string) (Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apps, err := s.read()
	if err != nil {
		return Application{}, err
	}
	for _, app := range apps {
		if app.ID == id {
			return app, nil
		}
	}
	return Application{}, ErrNotFound
}

// List returns every stored application.
func (s *JSONStore) List(context.Context) ([]Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *JSONStore) read() ([]Application, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var apps []Application
	if err := json.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", filepath.Base(s.path), err)
	}
	return apps, nil
}

// write replaces the file atomically so a crash never leaves half a list.
func (s *JSONStore) write(apps []Application) error {
	data, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
