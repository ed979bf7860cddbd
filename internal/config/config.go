// Package config loads runtime settings for the UI server and the reference
// backend. Sources are applied in order: defaults, YAML file, .env file,
// SYMPHONY_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SYMPHONY_"

// Store backends accepted by the reference backend.
const (
	StoreMemory   = "memory"
	StoreJSON     = "json"
	StorePostgres = "postgres"
)

// UIConfig configures the server-rendered application page.
type UIConfig struct {
	Listen         string        `yaml:"listen"`
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LoadWait       time.Duration `yaml:"load_wait"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	MaxSessions    int           `yaml:"max_sessions"`
	DefaultLang    string        `yaml:"default_lang"`
	SecureCookies  bool          `yaml:"secure_cookies"`
}

// APIConfig configures the reference backend.
type APIConfig struct {
	Listen         string   `yaml:"listen"`
	WindowFile     string   `yaml:"window_file"`
	Store          string   `yaml:"store"`
	DataFile       string   `yaml:"data_file"`
	DatabaseURL    string   `yaml:"database_url"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures the structured logger shared by both binaries.
type LogConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// Config is the combined runtime configuration.
type Config struct {
	UI  UIConfig  `yaml:"ui"`
	API APIConfig `yaml:"api"`
	Log LogConfig `yaml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		UI: UIConfig{
			Listen:         "127.0.0.1:4173",
			APIBaseURL:     "http://127.0.0.1:3000",
			RequestTimeout: 10 * time.Second,
			LoadWait:       1500 * time.Millisecond,
			SessionTTL:     30 * time.Minute,
			MaxSessions:    10000,
			DefaultLang:    string(locale.Default),
		},
		API: APIConfig{
			Listen:     "127.0.0.1:3000",
			WindowFile: "data/window.yaml",
			Store:      StoreMemory,
			DataFile:   "data/applications.json",
			RateLimit:  1,
			RateBurst:  5,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An empty
// path or a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env (%s): %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SYMPHONY_* variables read through lookup, normally
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("UI_LISTEN", &c.UI.Listen)
	str("API_BASE_URL", &c.UI.APIBaseURL)
	dur("REQUEST_TIMEOUT", &c.UI.RequestTimeout)
	dur("LOAD_WAIT", &c.UI.LoadWait)
	dur("SESSION_TTL", &c.UI.SessionTTL)
	num("MAX_SESSIONS", &c.UI.MaxSessions)
	str("DEFAULT_LANG", &c.UI.DefaultLang)
	if v, ok := lookup(EnvPrefix + "SECURE_COOKIES"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSECURE_COOKIES: %w", EnvPrefix, err))
		} else {
			c.UI.SecureCookies = b
		}
	}

	str("API_LISTEN", &c.API.Listen)
	str("WINDOW_FILE", &c.API.WindowFile)
	str("STORE", &c.API.Store)
	str("DATA_FILE", &c.API.DataFile)
	str("DATABASE_URL", &c.API.DatabaseURL)
	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok && strings.TrimSpace(v) != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err))
		} else {
			c.API.RateLimit = f
		}
	}
	num("RATE_BURST", &c.API.RateBurst)
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		c.API.AllowedOrigins = splitList(v)
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FILE", &c.Log.File)
	num("LOG_MAX_SIZE_MB", &c.Log.MaxSizeMB)
	num("LOG_MAX_FILES", &c.Log.MaxFiles)

	return errors.Join(errs...)
}

// Validate reports settings neither binary can run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.UI.APIBaseURL) == "" {
		errs = append(errs, errors.New("ui.api_base_url is required"))
	}
	if c.UI.RequestTimeout <= 0 {
		errs = append(errs, errors.New("ui.request_timeout must be positive"))
	}
	if c.UI.LoadWait < 0 {
		errs = append(errs, errors.New("ui.load_wait must not be negative"))
	}
	if c.UI.MaxSessions <= 0 {
		errs = append(errs, errors.New("ui.max_sessions must be positive"))
	}
	if _, ok := locale.Parse(c.UI.DefaultLang); !ok {
		errs = append(errs, fmt.Errorf("ui.default_lang %q is not supported", c.UI.DefaultLang))
	}
	switch c.API.Store {
	case StoreMemory:
	case StoreJSON:
		if strings.TrimSpace(c.API.DataFile) == "" {
			errs = append(errs, errors.New("api.data_file is required for the json store"))
		}
	case StorePostgres:
		if strings.TrimSpace(c.API.DatabaseURL) == "" {
			errs = append(errs, errors.New("api.database_url is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("api.store %q is not one of memory, json, postgres", c.API.Store))
	}
	if c.API.RateLimit <= 0 || c.API.RateBurst <= 0 {
		errs = append(errs, errors.New("api.rate_limit and api.rate_burst must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
