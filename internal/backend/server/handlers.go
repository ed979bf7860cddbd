package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Its-donkey/Symphony-apply/internal/backend/storage"
	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	maxIdempotencyKey = 128
)

type errorPayload = model.ErrorPayload

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, http.StatusOK, s.window.Current())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxApplicationBody)
	var form model.ApplicationFormData
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	form = trimForm(form)
	if missing := form.Missing(); len(missing) > 0 {
		respondJSON(w, http.StatusBadRequest, errorPayload{
			Message: "Missing required fields: " + strings.Join(missing, ", "),
		})
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if len(key) > maxIdempotencyKey {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: "Idempotency key is too long."})
		return
	}

	cfg := s.window.Current()
	if !cfg.IsOpen {
		respondJSON(w, http.StatusForbidden, errorPayload{Message: "Applications are closed."})
		return
	}
	if status, ok := roleStatus(cfg.Roles, form.Role); ok && status == model.RoleClosed {
		respondJSON(w, http.StatusForbidden, errorPayload{
			Message: fmt.Sprintf("The %s role is not accepting applications.", strings.ToLower(form.Role)),
		})
		return
	}

	logger := s.logger.FromContext(r.Context())
	app, created, err := s.store.Create(r.Context(), storage.Application{
		IdempotencyKey:      key,
		ApplicationFormData: form,
	})
	if err != nil {
		logger.Error("storage", "store application", err, nil)
		respondJSON(w, http.StatusInternalServerError, errorPayload{Message: "Could not store application."})
		return
	}

	resp := model.CreateApplicationResponse{ID: app.ID}
	if !created {
		logger.Info("submission", "application replayed", map[string]any{"id": app.ID})
		w.Header().Set(replayedHeader, "true")
		respondJSON(w, http.StatusOK, resp)
		return
	}
	// Applicant details are personal data; log only the id and role.
	logger.Info("submission", "application stored", map[string]any{"id": app.ID, "role": form.Role})
	respondJSON(w, http.StatusCreated, resp)
}

func trimForm(form model.ApplicationFormData) model.ApplicationFormData {
	for _, name := range model.FieldNames {
		form.Set(name, strings.TrimSpace(form.Get(name)))
	}
	return form
}

// roleStatus maps a free-text role to the window's status for it.
func roleStatus(roles model.Roles, role string) (model.RoleStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "helper":
		return roles.Helper, true
	case "builder":
		return roles.Builder, true
	case "developer", "dev":
		return roles.Developer, true
	}
	return "", false
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorPayload{Message: err.Error()})
}
