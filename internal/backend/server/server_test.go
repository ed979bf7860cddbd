package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Its-donkey/Symphony-apply/internal/backend/storage"
	"github.com/Its-donkey/Symphony-apply/internal/backend/window"
	"github.com/Its-donkey/Symphony-apply/internal/ui/api"
	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

const validBody = `{"ign":"Steve","discord":"steve#0001","age":"18","timezone":"UTC+7","role":"Helper","experience":"none","reason":"fun"}`

func openWindow() model.ApplicationConfig {
	return model.ApplicationConfig{
		IsOpen:       true,
		Season:       "Season 4",
		Dates:        model.Dates{Start: "Jan 1", Review: "Jan 10", End: "Jan 20"},
		CurrentStage: model.StageReview,
		Roles: model.Roles{
			Helper:    model.RoleOpen,
			Builder:   model.RoleLimited,
			Developer: model.RoleClosed,
		},
	}
}

func newTestServer(t *testing.T, opts Options) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	if opts.Store == nil {
		opts.Store = store
	}
	if opts.Window == nil {
		opts.Window = window.Static(openWindow())
	}
	return New(opts), store
}

func post(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/applications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload model.ErrorPayload
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	return payload.Message
}

func TestConfigServesCurrentWindow(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var cfg model.ApplicationConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&cfg))
	assert.Equal(t, openWindow(), cfg)
}

func TestConfigRejectsOtherMethods(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/config", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCreateApplicationStoresTrimmedFields(t *testing.T) {
	srv, store := newTestServer(t, Options{})
	body := strings.Replace(validBody, `"Steve"`, `"  Steve  "`, 1)
	rec := post(t, srv.Handler(), body, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp model.CreateApplicationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.ID)

	app, err := store.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Steve", app.IGN)
}

func TestCreateApplicationMissingFields(t *testing.T) {
	srv, store := newTestServer(t, Options{})
	rec := post(t, srv.Handler(), `{"ign":"Steve","discord":" ","age":"18"}`, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: discord, timezone, role, experience, reason", decodeMessage(t, rec))
	apps, _ := store.List(context.Background())
	assert.Empty(t, apps)
}

func TestCreateApplicationMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	for _, body := range []string{`{"ign":`, `{"ign":"x","extra":"field"}`, `[]`} {
		rec := post(t, srv.Handler(), body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCreateApplicationClosedWindow(t *testing.T) {
	closed := openWindow()
	closed.IsOpen = false
	srv, _ := newTestServer(t, Options{Window: window.Static(closed)})
	rec := post(t, srv.Handler(), validBody, nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Applications are closed.", decodeMessage(t, rec))
}

func TestCreateApplicationClosedRole(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	body := strings.Replace(validBody, `"Helper"`, `"Developer"`, 1)
	rec := post(t, srv.Handler(), body, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decodeMessage(t, rec), "developer")

	limited := strings.Replace(validBody, `"Helper"`, `"builder"`, 1)
	assert.Equal(t, http.StatusCreated, post(t, srv.Handler(), limited, nil).Code)

	other := strings.Replace(validBody, `"Helper"`, `"Moderator"`, 1)
	assert.Equal(t, http.StatusCreated, post(t, srv.Handler(), other, nil).Code)
}

func TestCreateApplicationIdempotencyKey(t *testing.T) {
	srv, store := newTestServer(t, Options{RateBurst: 10})
	h := srv.Handler()
	headers := map[string]string{"Idempotency-Key": "attempt-1"}

	first := post(t, h, validBody, headers)
	require.Equal(t, http.StatusCreated, first.Code)
	var firstResp model.CreateApplicationResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&firstResp))

	replay := post(t, h, validBody, headers)
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	var replayResp model.CreateApplicationResponse
	require.NoError(t, json.NewDecoder(replay.Body).Decode(&replayResp))
	assert.Equal(t, firstResp.ID, replayResp.ID)

	apps, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	rec := post(t, h, validBody, map[string]string{"Idempotency-Key": strings.Repeat("k", maxIdempotencyKey+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateApplicationRateLimitedPerClient(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 2})
	h := srv.Handler()
	visitorA := map[string]string{"X-Forwarded-For": "203.0.113.1"}
	visitorB := map[string]string{"X-Forwarded-For": "203.0.113.2, 10.0.0.1"}

	assert.Equal(t, http.StatusCreated, post(t, h, validBody, visitorA).Code)
	assert.Equal(t, http.StatusCreated, post(t, h, validBody, visitorA).Code)
	limited := post(t, h, validBody, visitorA)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusCreated, post(t, h, validBody, visitorB).Code)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"https://symphony.gg"}})
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/applications", nil)
	req.Header.Set("Origin", "https://symphony.gg")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://symphony.gg", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")

	req = httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

// The UI's client and this backend must agree on the wire contract.
func TestUIClientAgainstBackend(t *testing.T) {
	srv, store := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := api.NewClient(ts.URL, ts.Client())
	cfg, err := client.FetchConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, openWindow(), cfg)

	var form model.ApplicationFormData
	require.NoError(t, json.Unmarshal([]byte(validBody), &form))
	require.NoError(t, client.SubmitApplication(context.Background(), form, "ui-key"))
	require.NoError(t, client.SubmitApplication(context.Background(), form, "ui-key"))

	apps, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "ui-key", apps[0].IdempotencyKey)

	form.Reason = ""
	err = client.SubmitApplication(context.Background(), form, "")
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))

	now = now.Add(rl.idle + time.Second)
	assert.Equal(t, 1, rl.Cleanup())
	assert.True(t, rl.Allow("a"))
}
