// Api-server is the reference backend for the staff application page. It
// serves the recruitment window from a YAML file and stores applications in
// memory, a JSON file or PostgreSQL.
//
// Usage:
//
//	api-server [flags]
//	api-server list [flags]
//	api-server logs [flags]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Its-donkey/Symphony-apply/internal/backend/server"
	"github.com/Its-donkey/Symphony-apply/internal/backend/storage"
	"github.com/Its-donkey/Symphony-apply/internal/backend/window"
	"github.com/Its-donkey/Symphony-apply/internal/config"
	"github.com/Its-donkey/Symphony-apply/logging"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	configPath  string
	envFile     string
	listen      string
	windowFile  string
	storeKind   string
	dataFile    string
	databaseURL string
	logLevel    string
	logFile     string
)

var rootCmd = &cobra.Command{
	Use:   "api-server",
	Short: "Serve the Symphony Network applications API",
	Long: `Serve GET /api/config and POST /api/applications.

The recruitment window is read from --window and reloaded when the file
changes. Settings come from the YAML config file, the .env file, SYMPHONY_*
environment variables and these flags, later sources winning.`,
	Example: `  # In-memory store, window from data/window.yaml
  api-server

  # Persist to PostgreSQL
  api-server --store postgres --database-url postgres://symphony@localhost/symphony`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runServe,
}

var (
	logLines    int
	logMinLevel string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the newest entries of the log file",
	Long: `Print the newest entries of the rotating log file set by --log-file,
log.file or SYMPHONY_LOG_FILE, oldest first.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored applications as JSON lines",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "symphony.yaml", "Path to the YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")
	flags.StringVar(&storeKind, "store", "", "Application store (memory, json, postgres)")
	flags.StringVar(&dataFile, "data-file", "", "JSON store file")
	flags.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", "", "Rotating log file (stdout only when empty)")

	rootCmd.Flags().StringVar(&listen, "listen", "", "Address to serve the API on")
	rootCmd.Flags().StringVar(&windowFile, "window", "", "YAML file describing the recruitment window")

	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "Number of entries to show")
	logsCmd.Flags().StringVar(&logMinLevel, "level", "debug", "Only show entries at or above this level")

	rootCmd.AddCommand(listCmd, logsCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Resolve(configPath, envFile)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.API.Listen = listen
	}
	if flags.Changed("window") {
		cfg.API.WindowFile = windowFile
	}
	if flags.Changed("store") {
		cfg.API.Store = storeKind
	}
	if flags.Changed("data-file") {
		cfg.API.DataFile = dataFile
	}
	if flags.Changed("database-url") {
		cfg.API.DatabaseURL = databaseURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore builds the configured store and makes sure its schema exists.
// The returned close function releases any connection pool.
func openStore(ctx context.Context, cfg config.APIConfig, logger *logging.Logger) (storage.Store, func() error, error) {
	noop := func() error { return nil }
	var (
		store   storage.Store
		closeFn = noop
	)
	switch cfg.Store {
	case config.StoreJSON:
		s, err := storage.NewJSONStore(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case config.StorePostgres:
		s, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	default:
		store = storage.NewMemoryStore()
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("prepare %s store: %w", cfg.Store, err)
	}
	logger.Info("storage", "application store ready", map[string]any{"store": cfg.Store})
	return store, closeFn, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLogs, err := cfg.Log.OpenLogger("api")
	if err != nil {
		return err
	}
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := window.NewSource(cfg.API.WindowFile, logger)
	if err != nil {
		return fmt.Errorf("load window: %w", err)
	}
	store, closeStore, err := openStore(ctx, cfg.API, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	return server.Run(ctx, server.Options{
		Listen:         cfg.API.Listen,
		Window:         win,
		Store:          store,
		RateLimit:      cfg.API.RateLimit,
		RateBurst:      cfg.API.RateBurst,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Logger:         logger,
	})
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.API.Store == config.StoreMemory {
		return fmt.Errorf("the memory store does not outlive the server; use --store json or postgres")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, closeStore, err := openStore(ctx, cfg.API, logging.Nop())
	if err != nil {
		return err
	}
	defer closeStore()

	apps, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list applications: %w", err)
	}
	return writeJSONLines(cmd.OutOrStdout(), apps)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Log.File == "" {
		return fmt.Errorf("no log file configured; set --log-file")
	}
	if logLines <= 0 {
		return fmt.Errorf("--lines must be positive")
	}
	entries, err := logging.ReadRecent(cfg.Log.File, logLines)
	if err != nil {
		return fmt.Errorf("read logs: %w", err)
	}
	writeEntries(cmd.OutOrStdout(), entries, logging.ParseLevel(logMinLevel))
	return nil
}

// writeEntries prints entries at or above minLevel, one per line.
func writeEntries(w io.Writer, entries []logging.Entry, minLevel logging.Level) {
	for _, e := range entries {
		if logging.ParseLevel(e.Level) < minLevel {
			continue
		}
		line := fmt.Sprintf("%s %-5s [%s] %s", e.Timestamp, e.Level, e.Category, e.Message)
		if e.RequestID != "" {
			line += " request_id=" + e.RequestID
		}
		if e.Error != "" {
			line += " error=" + e.Error
		}
		fmt.Fprintln(w, line)
	}
}

func writeJSONLines(w io.Writer, apps []storage.Application) error {
	enc := json.NewEncoder(w)
	for _, app := range apps {
		if err := enc.Encode(app); err != nil {
			return err
		}
	}
	return nil
}
