package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/Its-donkey/Symphony-apply/internal/ui/api"
	"github.com/Its-donkey/Symphony-apply/internal/ui/forms"
	"github.com/Its-donkey/Symphony-apply/internal/ui/state"
)

const applicationAnchor = "/#application"

func parseApplicationForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// handleApply stores the posted fields on the session's form and submits
// them. Every outcome redirects back to the form, which renders from the
// session state.
func (s *server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	sess, ok := s.lookupSession(r)
	if !ok {
		redirect(w, r, "/")
		return
	}
	values, err := parseApplicationForm(r)
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	cfg, ok := sess.Page.Config()
	if !ok || sess.Page.View() != state.ViewMain {
		redirect(w, r, "/")
		return
	}

	sess.Form.SetFields(forms.FromValues(values))

	// The submission outlives a client disconnect so its outcome is recorded.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.requestTimeout)
	defer cancel()
	ctx = api.WithClientAddr(ctx, visitorAddr(r))
	err = sess.Form.Submit(ctx, cfg.IsOpen, s.backend)
	s.metrics.Submission(err)

	logger := s.logger.FromContext(r.Context())
	var validationErr *forms.ValidationError
	switch {
	case err == nil:
		logger.Info("submission", "application submitted", map[string]any{"session": sess.ID})
	case errors.Is(err, forms.ErrApplicationsClosed),
		errors.Is(err, forms.ErrSubmissionInFlight),
		errors.Is(err, forms.ErrNotEditable):
		logger.Debug("submission", "submission ignored", map[string]any{"session": sess.ID, "reason": err.Error()})
	case errors.As(err, &validationErr):
		logger.Debug("submission", "required fields missing", map[string]any{"session": sess.ID, "missing": validationErr.Missing})
	default:
		logger.Warn("submission", "application submission failed", map[string]any{"session": sess.ID, "error": err.Error()})
	}
	redirect(w, r, applicationAnchor)
}

func (s *server) handleApplyAnother(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	sess, ok := s.lookupSession(r)
	if !ok {
		redirect(w, r, "/")
		return
	}
	sess.Form.SubmitAnother()
	redirect(w, r, applicationAnchor)
}

// visitorAddr returns the host part of the request's remote address.
func visitorAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
