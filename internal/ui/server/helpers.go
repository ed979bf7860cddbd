package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/state"
)

const sessionCookie = "symphony_session"

// lookupSession returns the visitor's live session, if any.
func (s *server) lookupSession(r *http.Request) (*state.Session, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return s.sessions.Get(cookie.Value)
}

// session returns the visitor's session, creating one (and starting its
// first config fetch) when the cookie is missing or expired. Only page loads
// call it; form posts without a session are sent back to the page.
func (s *server) session(w http.ResponseWriter, r *http.Request) (*state.Session, bool) {
	if sess, ok := s.lookupSession(r); ok {
		return sess, false
	}

	sess := s.sessions.Create(s.initialLang(r))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	s.metrics.SetActiveSessions(s.sessions.Len())
	s.startFetch(sess)
	return sess, true
}

// initialLang picks the language for a new session: ?lang first, then
// Accept-Language, then the configured default.
func (s *server) initialLang(r *http.Request) locale.Lang {
	if lang, ok := locale.Parse(r.URL.Query().Get("lang")); ok {
		return lang
	}
	if header := strings.TrimSpace(r.Header.Get("Accept-Language")); header != "" {
		return locale.Negotiate(header)
	}
	return s.defaultLang
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
