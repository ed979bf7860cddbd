package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:4173", cfg.UI.Listen)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.UI.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.UI.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.UI.SessionTTL)
	assert.Equal(t, "en", cfg.UI.DefaultLang)
	assert.Equal(t, StoreMemory, cfg.API.Store)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symphony.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ui:
  listen: ":8080"
  load_wait: 250ms
  default_lang: id
api:
  store: json
  data_file: /tmp/apps.json
  allowed_origins: ["https://symphony.gg"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.UI.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.UI.LoadWait)
	assert.Equal(t, "id", cfg.UI.DefaultLang)
	assert.Equal(t, "http://127.0.0.1:3000", cfg.UI.APIBaseURL, "unset keys keep defaults")
	assert.Equal(t, StoreJSON, cfg.API.Store)
	assert.Equal(t, []string{"https://symphony.gg"}, cfg.API.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui: [not, a, map"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SYMPHONY_API_BASE_URL":    "http://backend:3000",
		"SYMPHONY_LOAD_WAIT":       "2s",
		"SYMPHONY_STORE":           "postgres",
		"SYMPHONY_DATABASE_URL":    "postgres://localhost/symphony",
		"SYMPHONY_RATE_LIMIT":      "0.5",
		"SYMPHONY_RATE_BURST":      "2",
		"SYMPHONY_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"SYMPHONY_SECURE_COOKIES":  "true",
		"SYMPHONY_LOG_LEVEL":       "debug",
		"SYMPHONY_MAX_SESSIONS":    "50",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, "http://backend:3000", cfg.UI.APIBaseURL)
	assert.Equal(t, 2*time.Second, cfg.UI.LoadWait)
	assert.True(t, cfg.UI.SecureCookies)
	assert.Equal(t, 50, cfg.UI.MaxSessions)
	assert.Equal(t, StorePostgres, cfg.API.Store)
	assert.Equal(t, 0.5, cfg.API.RateLimit)
	assert.Equal(t, 2, cfg.API.RateBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	env := map[string]string{
		"SYMPHONY_LOAD_WAIT":  "soon",
		"SYMPHONY_RATE_BURST": "many",
	}
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SYMPHONY_LOAD_WAIT")
	assert.Contains(t, err.Error(), "SYMPHONY_RATE_BURST")
	assert.Equal(t, Default().UI.LoadWait, cfg.UI.LoadWait)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SYMPHONY_TEST_ONLY_VALUE=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SYMPHONY_TEST_ONLY_VALUE") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-dotenv", os.Getenv("SYMPHONY_TEST_ONLY_VALUE"))

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, LoadEnvFile(""))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.UI.DefaultLang = "fr"
	cfg.API.Store = "redis"
	cfg.UI.RequestTimeout = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_lang")
	assert.Contains(t, err.Error(), "api.store")
	assert.Contains(t, err.Error(), "request_timeout")

	cfg = Default()
	cfg.API.Store = StorePostgres
	assert.ErrorContains(t, cfg.Validate(), "database_url")
}

func TestResolveAppliesEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "symphony.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  listen: \":9000\"\n"), 0o644))
	t.Setenv("SYMPHONY_UI_LISTEN", ":9100")

	cfg, err := Resolve(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.UI.Listen)
}

func TestOpenLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui.log")
	logger, closeFn, err := LogConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxFiles: 2}.OpenLogger("ui")
	require.NoError(t, err)
	logger.Info("general", "hello", nil)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}
