// Package window holds the recruitment window served at /api/config. The
// window is read from a YAML file and reloaded when the file changes.
package window

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
	"github.com/Its-donkey/Symphony-apply/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Default returns the window used when no file is present: closed, with
// every role closed.
func Default() model.ApplicationConfig {
	return model.ApplicationConfig{
		IsOpen:       false,
		Season:       "Season 1",
		Dates:        model.Dates{Start: "TBA", Review: "TBA", End: "TBA"},
		CurrentStage: model.StageStart,
		Roles: model.Roles{
			Helper:    model.RoleClosed,
			Builder:   model.RoleClosed,
			Developer: model.RoleClosed,
		},
	}
}

// Parse decodes a window document. Unknown keys and unknown enum values are
// rejected.
func Parse(data []byte) (model.ApplicationConfig, error) {
	var cfg model.ApplicationConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("decode window: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("invalid window: %w", err)
	}
	return cfg, nil
}

// Load reads and parses the window file at path.
func Load(path string) (model.ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ApplicationConfig{}, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Source serves the most recent valid window read from a file.
type Source struct {
	path     string
	logger   *logging.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current model.ApplicationConfig
}

// NewSource loads path. A missing file yields Default; a malformed one is an
// error.
func NewSource(path string, logger *logging.Logger) (*Source, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Source{path: path, logger: logger, debounce: defaultDebounce, current: Default()}
	if path == "" {
		return s, nil
	}
	cfg, err := Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("config", "window file not found, serving closed window", map[string]any{"path": path})
	case err != nil:
		return nil, err
	default:
		s.current = cfg
	}
	return s, nil
}

// Static returns a Source that always serves cfg.
func Static(cfg model.ApplicationConfig) *Source {
	return &Source{logger: logging.Nop(), debounce: defaultDebounce, current: cfg}
}

// Current returns the active window.
func (s *Source) Current() model.ApplicationConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set replaces the active window.
func (s *Source) Set(cfg model.ApplicationConfig) {
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
}

// Reload re-reads the file. On failure the previous window stays active.
func (s *Source) Reload() error {
	if s.path == "" {
		return nil
	}
	cfg, err := Load(s.path)
	if err != nil {
		return err
	}
	s.Set(cfg)
	s.logger.Info("config", "window reloaded", map[string]any{
		"path":         s.path,
		"isOpen":       cfg.IsOpen,
		"currentStage": string(cfg.CurrentStage),
	})
	return nil
}

// Watch reloads the window whenever its file is written, created or renamed
// into place. It blocks until ctx is cancelled.
func (s *Source) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	// Editors replace files by rename, so watch the directory.
	dir := filepath.Dir(s.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(s.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := func() {
		if err := s.Reload(); err != nil {
			s.logger.Error("config", "window reload failed, keeping previous window", err, map[string]any{"path": s.path})
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(s.debounce, reload)
			} else {
				timer.Reset(s.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config", "window watcher error", map[string]any{"error": err.Error()})
		}
	}
}
