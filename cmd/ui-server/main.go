// Ui-server serves the Symphony Network staff application page.
//
// The page is rendered on the server: each visitor gets a session holding the
// recruitment config fetched from the backend and the state of their
// application form.
//
// Usage:
//
//	ui-server [flags]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Its-donkey/Symphony-apply/internal/config"
	"github.com/Its-donkey/Symphony-apply/internal/ui/locale"
	"github.com/Its-donkey/Symphony-apply/internal/ui/metrics"
	"github.com/Its-donkey/Symphony-apply/internal/ui/server"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	configPath string
	envFile    string
	listen     string
	apiBase    string
	loadWait   time.Duration
	timeout    time.Duration
	defaultLng string
	logLevel   string
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "ui-server",
	Short: "Serve the Symphony Network staff application page",
	Long: `Serve the server-rendered staff application page.

Settings are read from the YAML config file, then the .env file, then
SYMPHONY_* environment variables, then these flags.`,
	Example: `  # Serve against a local backend
  ui-server --api http://127.0.0.1:3000

  # Indonesian by default, verbose logs
  ui-server --default-lang id --log-level debug`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runUI,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "symphony.yaml", "Path to the YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	flags.StringVar(&listen, "listen", "", "Address to serve the page on")
	flags.StringVar(&apiBase, "api", "", "Base URL of the applications backend")
	flags.DurationVar(&loadWait, "load-wait", 0, "How long a page request waits for the config before showing the loading view")
	flags.DurationVar(&timeout, "timeout", 0, "Timeout for backend requests")
	flags.StringVar(&defaultLng, "default-lang", "", "Language for visitors without a preference (en, id)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "Rotating log file (stdout only when empty)")
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(configPath, envFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLogs, err := cfg.Log.OpenLogger("ui")
	if err != nil {
		return err
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang, _ := locale.Parse(cfg.UI.DefaultLang)
	return server.Run(ctx, server.Options{
		Listen:         cfg.UI.Listen,
		APIBaseURL:     cfg.UI.APIBaseURL,
		RequestTimeout: cfg.UI.RequestTimeout,
		LoadWait:       cfg.UI.LoadWait,
		SessionTTL:     cfg.UI.SessionTTL,
		MaxSessions:    cfg.UI.MaxSessions,
		DefaultLang:    lang,
		SecureCookies:  cfg.UI.SecureCookies,
		Logger:         logger,
		Metrics:        metrics.New(),
	})
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.UI.Listen = listen
	}
	if flags.Changed("api") {
		cfg.UI.APIBaseURL = apiBase
	}
	if flags.Changed("load-wait") {
		cfg.UI.LoadWait = loadWait
	}
	if flags.Changed("timeout") {
		cfg.UI.RequestTimeout = timeout
	}
	if flags.Changed("default-lang") {
		cfg.UI.DefaultLang = defaultLng
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
}
