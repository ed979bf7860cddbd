package state

import (
	"context"
	"sync"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
	"github.com/Its-donkey/Symphony-apply/logging"
)

// View is the top-level page shown to a visitor. Exactly one is active.
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewMain
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewError:
		return "error"
	case ViewMain:
		return "main"
	}
	return "unknown"
}

// Ticket identifies one config fetch. Only the newest ticket may resolve.
type Ticket uint64

// ConfigFetcher loads the application config from the backend.
type ConfigFetcher interface {
	FetchConfig(ctx context.Context) (model.ApplicationConfig, error)
}

// Page tracks the config lifecycle for one visitor: whether a fetch is in
// flight, whether the last one failed, and the config it produced.
type Page struct {
	mu      sync.Mutex
	loading bool
	failed  bool
	config  *model.ApplicationConfig
	current Ticket
	lastErr error
}

// NewPage returns a page that is waiting for its first fetch.
func NewPage() *Page {
	return &Page{loading: true}
}

// BeginFetch marks a new fetch in flight, discarding any previous config or
// failure. Any ticket issued before this one becomes stale.
func (p *Page) BeginFetch() Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.loading = true
	p.failed = false
	p.config = nil
	p.lastErr = nil
	return p.current
}

// Resolve applies the outcome of the fetch identified by t. Outcomes from a
// superseded fetch are dropped and Resolve reports false.
func (p *Page) Resolve(t Ticket, cfg model.ApplicationConfig, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t != p.current {
		return false
	}
	p.loading = false
	if err != nil {
		p.failed = true
		p.config = nil
		p.lastErr = err
		return true
	}
	p.failed = false
	p.config = &cfg
	return true
}

// Fetch runs one full fetch cycle and reports whether its outcome was applied.
func (p *Page) Fetch(ctx context.Context, fetcher ConfigFetcher, logger *logging.Logger) (bool, error) {
	return p.complete(ctx, p.BeginFetch(), fetcher, logger, nil)
}

func (p *Page) complete(ctx context.Context, ticket Ticket, fetcher ConfigFetcher, logger *logging.Logger, fields map[string]any) (bool, error) {
	cfg, err := fetcher.FetchConfig(ctx)
	applied := p.Resolve(ticket, cfg, err)
	if fields == nil {
		fields = map[string]any{}
	}
	fields["ticket"] = uint64(ticket)
	switch {
	case !applied:
		logger.Debug("config", "discarded stale config result", fields)
	case err != nil:
		logger.Error("config", "failed to load application config", err, fields)
	default:
		fields["season"] = cfg.Season
		fields["isOpen"] = cfg.IsOpen
		fields["stage"] = string(cfg.CurrentStage)
		logger.Debug("config", "application config loaded", fields)
	}
	return applied, err
}

// View selects the page to render from the current flags.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.loading:
		return ViewLoading
	case p.failed || p.config == nil:
		return ViewError
	default:
		return ViewMain
	}
}

// Config returns the loaded config, if any.
func (p *Page) Config() (model.ApplicationConfig, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.config == nil {
		return model.ApplicationConfig{}, false
	}
	return *p.config, true
}

// Loading reports whether a fetch is in flight.
func (p *Page) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Err returns the error of the last applied fetch, for logs only.
func (p *Page) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
