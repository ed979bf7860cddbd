// Package api talks to the Symphony backend: it fetches the recruitment
// window configuration and posts staff applications.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Its-donkey/Symphony-apply/internal/ui/model"
)

const (
	// ConfigPath serves the recruitment window configuration.
	ConfigPath = "/api/config"
	// ApplicationsPath accepts application submissions.
	ApplicationsPath = "/api/applications"
	// IdempotencyHeader lets the backend de-duplicate resubmissions.
	IdempotencyHeader = "Idempotency-Key"
	// ForwardedForHeader carries the visitor address to the backend.
	ForwardedForHeader = "X-Forwarded-For"

	maxResponseBody = 1 << 20
)

// ErrMalformedConfig is returned when /api/config answers 2xx with a body that
// is not a complete, well-formed ApplicationConfig.
var ErrMalformedConfig = errors.New("malformed config response")

// requiredConfigPaths lists every member the page renders from the config.
var requiredConfigPaths = []string{
	"isOpen",
	"season",
	"dates.start",
	"dates.review",
	"dates.end",
	"currentStage",
	"roles.helper",
	"roles.builder",
	"roles.developer",
}

type clientAddrKey struct{}

// WithClientAddr records the visitor address sent with submissions made
// under ctx, so backend rate limits apply per visitor.
func WithClientAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, clientAddrKey{}, addr)
}

func clientAddr(ctx context.Context) string {
	addr, _ := ctx.Value(clientAddrKey{}).(string)
	return strings.TrimSpace(addr)
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server error: %d", e.Code)
}

// Client is a small HTTP client for the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client for baseURL. A nil httpClient gets a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// FetchConfig retrieves the current application window. Any transport error,
// non-2xx status or structurally wrong body is returned as an error; no
// partial or default config is ever produced.
func (c *Client) FetchConfig(ctx context.Context) (model.ApplicationConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ConfigPath, nil)
	if err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("build config request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("fetch config: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("read config: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.ApplicationConfig{}, &StatusError{Code: resp.StatusCode}
	}
	return decodeConfig(body)
}

func decodeConfig(body []byte) (model.ApplicationConfig, error) {
	if !gjson.ValidBytes(body) {
		return model.ApplicationConfig{}, fmt.Errorf("%w: invalid JSON", ErrMalformedConfig)
	}
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return model.ApplicationConfig{}, fmt.Errorf("%w: expected an object", ErrMalformedConfig)
	}
	for _, path := range requiredConfigPaths {
		value := parsed.Get(path)
		if !value.Exists() {
			return model.ApplicationConfig{}, fmt.Errorf("%w: missing %s", ErrMalformedConfig, path)
		}
		if path == "isOpen" {
			if value.Type != gjson.True && value.Type != gjson.False {
				return model.ApplicationConfig{}, fmt.Errorf("%w: isOpen is not a boolean", ErrMalformedConfig)
			}
		} else if value.Type != gjson.String {
			return model.ApplicationConfig{}, fmt.Errorf("%w: %s is not a string", ErrMalformedConfig, path)
		}
	}

	var cfg model.ApplicationConfig
	if err := json.Unmarshal(body, &cfg); err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return model.ApplicationConfig{}, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	return cfg, nil
}

// SubmitApplication posts the seven form fields as JSON. Only a 2xx status
// counts as success; the response body is ignored. idempotencyKey is sent
// when non-empty.
func (c *Client) SubmitApplication(ctx context.Context, form model.ApplicationFormData, idempotencyKey string) error {
	payload, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("encode application: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ApplicationsPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build application request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, idempotencyKey)
	}
	if addr := clientAddr(ctx); addr != "" {
		req.Header.Set(ForwardedForHeader, addr)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
