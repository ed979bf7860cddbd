// Package server is the reference applications backend: it serves the
// recruitment window and accepts staff applications.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/Its-donkey/Symphony-apply/internal/backend/storage"
	"github.com/Its-donkey/Symphony-apply/internal/backend/window"
	"github.com/Its-donkey/Symphony-apply/logging"
)

const (
	defaultListen      = "127.0.0.1:3000"
	limiterCleanup     = time.Minute
	shutdownTimeout    = 10 * time.Second
	maxApplicationBody = 64 << 10
)

// Options configures the backend.
type Options struct {
	Listen         string
	Window         *window.Source
	Store          storage.Store
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
	Logger         *logging.Logger
}

// Server exposes the backend HTTP handlers.
type Server struct {
	window  *window.Source
	store   storage.Store
	limiter *RateLimiter
	origins map[string]bool
	anyOrig bool
	logger  *logging.Logger
}

// New constructs a Server. A nil Window serves the default closed window and
// a nil Store keeps applications in memory.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	win := opts.Window
	if win == nil {
		win = window.Static(window.Default())
	}
	store := opts.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	ratePerSec, burst := opts.RateLimit, opts.RateBurst
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst <= 0 {
		burst = 5
	}

	s := &Server{
		window:  win,
		store:   store,
		limiter: NewRateLimiter(ratePerSec, burst, logger),
		origins: make(map[string]bool),
		logger:  logger,
	}
	for _, origin := range opts.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			s.anyOrig = true
		default:
			s.origins[origin] = true
		}
	}
	return s
}

// Handler returns the routed, logged HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.cors)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, errorPayload{Message: "Method Not Allowed"})
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, errorPayload{Message: "Not Found"})
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	api.Handle("/applications", s.limiter.Middleware(http.HandlerFunc(s.handleCreateApplication))).Methods(http.MethodPost)
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(s.handlePreflight)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return logging.NewHTTPLogger(s.logger).Middleware(r)
}

// Run serves the backend until ctx is cancelled. It also watches the window
// file and prunes idle rate limiters.
func Run(ctx context.Context, opts Options) error {
	listen := strings.TrimSpace(opts.Listen)
	if listen == "" {
		listen = defaultListen
	}
	s := New(opts)

	go s.limiter.Run(ctx, limiterCleanup)
	go func() {
		if err := s.window.Watch(ctx); err != nil {
			s.logger.Error("config", "window watcher stopped", err, nil)
		}
	}()

	httpServer := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("general", "serving applications api", map[string]any{"listen": listen})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) allowOrigin(origin string) bool {
	return origin != "" && (s.anyOrig || s.origins[origin])
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.allowOrigin(origin) {
			h := w.Header()
			if s.anyOrig {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")
		}
		next.ServeHTTP(w, r)
	})
}
