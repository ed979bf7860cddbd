package config

import (
	"fmt"
	"io"
	"os"

	"github.com/Its-donkey/Symphony-apply/logging"
)

// Resolve applies defaults, the YAML file, the .env file and SYMPHONY_*
// variables in that order.
func Resolve(path, envFile string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return Config{}, err
	}
	if err := LoadEnvFile(envFile); err != nil {
		return Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, fmt.Errorf("environment overrides: %w", err)
	}
	return cfg, nil
}

// OpenLogger builds the structured logger described by l. Entries go to
// stdout and, when File is set, to a rotating file. The returned close
// function flushes and releases the file.
func (l LogConfig) OpenLogger(site string) (*logging.Logger, func() error, error) {
	writers := []io.Writer{os.Stdout}
	var file *logging.FileWriter
	if l.File != "" {
		fw, err := logging.NewFileWriter(l.File, l.MaxSizeMB, l.MaxFiles)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		file = fw
		writers = append(writers, fw)
	}
	logger := logging.New(site, logging.ParseLevel(l.Level), writers...)
	closeFn := func() error {
		_ = logger.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return logger, closeFn, nil
}
