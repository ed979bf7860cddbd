// Command symphony-apply runs the applications API and the page server
// together for local development. Each child's output is prefixed with its
// name; when one exits the other is stopped.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Its-donkey/Symphony-apply/logging"
)

const (
	devAPIListen = "127.0.0.1:3000"
	devUIListen  = "127.0.0.1:4173"
	stopGrace    = 3 * time.Second
)

type procConfig struct {
	Name string
	Args []string
	Env  []string
}

func devProcs() []procConfig {
	return []procConfig{
		{
			Name: "api",
			Args: []string{
				"go", "run", "./cmd/api-server",
				"--listen", devAPIListen,
				"--window", "data/window.yaml",
				"--log-level", "debug",
			},
		},
		{
			Name: "ui",
			Args: []string{
				"go", "run", "./cmd/ui-server",
				"--listen", devUIListen,
				"--api", "http://" + devAPIListen,
				"--log-level", "debug",
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New("dev", logging.INFO, os.Stderr)
	defer logger.Sync()

	if err := runAll(ctx, devProcs(), logger); err != nil {
		logger.Error("general", "dev runner stopped", err, nil)
		os.Exit(1)
	}
}

// runAll starts every process and waits. The first failure cancels the rest.
func runAll(ctx context.Context, procs []procConfig, logger *logging.Logger) error {
	if len(procs) == 0 {
		return fmt.Errorf("no processes configured")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(procs))

	for _, cfg := range procs {
		wg.Add(1)
		go func(cfg procConfig) {
			defer wg.Done()
			if err := runProc(ctx, cfg, logger); err != nil {
				errCh <- err
				cancel()
			}
		}(cfg)
	}

	wg.Wait()
	close(errCh)
	return <-errCh
}

func runProc(ctx context.Context, cfg procConfig, logger *logging.Logger) error {
	cmd := exec.CommandContext(ctx, cfg.Args[0], cfg.Args[1:]...)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = stopGrace
	if len(cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), cfg.Env...)
	}
	stdout := prefixWriter(os.Stdout, cfg.Name)
	stderr := prefixWriter(os.Stderr, cfg.Name)
	defer stdout.Close()
	defer stderr.Close()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Info("general", "starting "+cfg.Name, map[string]any{"args": cfg.Args})
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s start: %w", cfg.Name, err)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%s exited: %w", cfg.Name, err)
	}
	if ctx.Err() == nil {
		return fmt.Errorf("%s exited unexpectedly", cfg.Name)
	}
	return nil
}

// prefixWriter copies lines written to it onto dst as "[name] line".
func prefixWriter(dst io.Writer, name string) io.WriteCloser {
	pr, pw := io.Pipe()
	go func() {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64<<10), 1<<20)
		for scanner.Scan() {
			fmt.Fprintf(dst, "[%s] %s\n", name, scanner.Text())
		}
		_ = pr.CloseWithError(scanner.Err())
	}()
	return pw
}
