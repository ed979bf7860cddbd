package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/Symphony-apply/internal/ui/api"
	"github.com/Its-donkey/Symphony-apply/internal/ui/forms"
	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/metrics"
	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
	"github.com/Its-donkey/Symphony-apply/internal/ui/state"
	"github.com/Its-donkey/Symphony-apply/logging"
)

const (
	defaultListen         = "127.0.0.1:4173"
	defaultRequestTimeout = 10 * time.Second
	defaultLoadWait       = 1500 * time.Millisecond
	defaultSessionTTL     = 30 * time.Minute
	defaultMaxSessions    = 10000
	sweepInterval         = time.Minute
	loadingRefreshSeconds = 2
)

// Options configures the UI HTTP server.
type Options struct {
	Listen         string
	APIBaseURL     string
	RequestTimeout time.Duration
	// LoadWait bounds how long a page load waits for the config. Zero uses
	// the default; a negative value renders the loading view at once.
	LoadWait      time.Duration
	SessionTTL    time.Duration
	MaxSessions   int
	DefaultLang   locale.Lang
	SecureCookies bool
	Logger        *logging.Logger
	Metrics       *metrics.Metrics
	Templates     map[string]*template.Template

	// Backend replaces the HTTP client built from APIBaseURL.
	Backend Backend
}

// Backend is the subset of the application API used by the page.
type Backend interface {
	state.ConfigFetcher
	forms.Submitter
}

type server struct {
	templates      map[string]*template.Template
	backend        Backend
	sessions       *state.Sessions
	logger         *logging.Logger
	metrics        *metrics.Metrics
	requestTimeout time.Duration
	loadWait       time.Duration
	sessionTTL     time.Duration
	defaultLang    locale.Lang
	secureCookies  bool
	stylesPath     string
	currentYear    int
	// baseCtx bounds background config fetches to the server lifetime.
	baseCtx context.Context
}

func applyDefaults(opts Options) Options {
	if strings.TrimSpace(opts.Listen) == "" {
		opts.Listen = defaultListen
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	switch {
	case opts.LoadWait == 0:
		opts.LoadWait = defaultLoadWait
	case opts.LoadWait < 0:
		opts.LoadWait = 0
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = defaultMaxSessions
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if lang, ok := locale.Parse(string(opts.DefaultLang)); ok {
		opts.DefaultLang = lang
	} else {
		opts.DefaultLang = locale.Default
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return opts
}

func newServer(ctx context.Context, opts Options) (*server, error) {
	opts = applyDefaults(opts)

	tmpl := opts.Templates
	if tmpl == nil {
		loaded, err := loadTemplates()
		if err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
		tmpl = loaded
	}

	backend := opts.Backend
	if backend == nil {
		if strings.TrimSpace(opts.APIBaseURL) == "" {
			return nil, errors.New("api base url is required")
		}
		backend = api.NewClient(opts.APIBaseURL, &http.Client{Timeout: opts.RequestTimeout})
	}

	sessions := state.NewSessions(opts.SessionTTL)
	sessions.SetLimit(opts.MaxSessions)

	return &server{
		templates:      tmpl,
		backend:        backend,
		sessions:       sessions,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		requestTimeout: opts.RequestTimeout,
		loadWait:       opts.LoadWait,
		sessionTTL:     opts.SessionTTL,
		defaultLang:    opts.DefaultLang,
		secureCookies:  opts.SecureCookies,
		stylesPath:     "/styles.css",
		currentYear:    time.Now().Year(),
		baseCtx:        ctx,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/retry", s.handleRetry)
	mux.HandleFunc("/apply", s.handleApply)
	mux.HandleFunc("/apply/another", s.handleApplyAnother)
	mux.HandleFunc("/lang", s.handleLang)
	mux.Handle("/styles.css", s.assetHandler("styles.css", "text/css; charset=utf-8"))
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	httpLogger := logging.NewHTTPLogger(s.logger)
	if s.metrics != nil {
		httpLogger.Observe = s.metrics.ObserveHTTP
	}
	return httpLogger.Middleware(mux)
}

// Run starts the UI HTTP server and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, opts Options) error {
	opts = applyDefaults(opts)
	srv, err := newServer(ctx, opts)
	if err != nil {
		return err
	}

	go srv.sessions.Run(ctx, sweepInterval, srv.logger)

	httpServer := &http.Server{
		Addr:              opts.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	srv.logger.Info("general", "serving application page", map[string]any{
		"listen":  opts.Listen,
		"backend": opts.APIBaseURL,
	})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// fetcher bounds each config fetch by the request timeout.
type fetcher struct {
	backend Backend
	timeout time.Duration
}

func (f fetcher) FetchConfig(ctx context.Context) (model.ApplicationConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.backend.FetchConfig(ctx)
}

// startFetch begins a background config fetch for sess.
func (s *server) startFetch(sess *state.Session) <-chan struct{} {
	return sess.Fetch(s.baseCtx, fetcher{backend: s.backend, timeout: s.requestTimeout}, s.logger, s.metrics.ConfigFetch)
}
