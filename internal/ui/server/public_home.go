package server

import (
	"net/http"

	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/state"
)

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	if r.Method == http.MethodHead {
		if _, ok := s.lookupSession(r); !ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			return
		}
	}

	sess, _ := s.session(w, r)
	if lang, ok := locale.Parse(r.URL.Query().Get("lang")); ok {
		sess.SetLang(lang)
	}
	if sess.Page.Loading() {
		sess.Wait(r.Context(), s.loadWait)
	}

	view := sess.Page.View()
	if view == state.ViewError {
		fields := map[string]any{"session": sess.ID}
		if err := sess.Page.Err(); err != nil {
			fields["error"] = err.Error()
		}
		s.logger.FromContext(r.Context()).Debug("config", "rendering error view", fields)
	}
	switch view {
	case state.ViewLoading, state.ViewError:
		s.renderView(w, r, view.String(), http.StatusOK, s.buildBasePageData(view, sess.Lang()))
	default:
		cfg, _ := sess.Page.Config()
		s.renderView(w, r, "main", http.StatusOK, s.buildMainPageData(sess, cfg))
	}
}

// handleRetry re-invokes the config fetch once per click.
func (s *server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if sess, ok := s.lookupSession(r); ok {
		s.logger.FromContext(r.Context()).Info("config", "retrying config fetch", map[string]any{"session": sess.ID})
		s.startFetch(sess)
	}
	redirect(w, r, "/")
}

func (s *server) handleLang(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	requested, explicit := locale.Parse(r.PostForm.Get("lang"))

	sess, ok := s.lookupSession(r)
	if !ok {
		// The page load creates the session in the chosen language.
		if !explicit {
			requested = s.initialLang(r).Toggle()
		}
		redirect(w, r, "/?lang="+string(requested))
		return
	}
	if explicit {
		sess.SetLang(requested)
	} else {
		sess.SetLang(sess.Lang().Toggle())
	}
	redirect(w, r, "/")
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *server) assetHandler(name, contentType string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := assetFS.ReadFile("assets/" + name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(data)
	})
}
