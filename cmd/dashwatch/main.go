// Package main implements dashwatch, a headless consumer of the worker
// health dashboard's event stream. It keeps a live mirror of the fleet
// model and exposes it through prometheus metrics and periodic log lines.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/dashstream/client"
	"github.com/c360/dashstream/config"
	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/message"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/state"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "dashwatch"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.LogLevel != "" {
		cfg.LogLevel = cliCfg.LogLevel
	}

	logger := setupLogger(cfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting dashwatch",
		"version", Version,
		"build_time", BuildTime,
		"url", cfg.URL,
		"config_path", cliCfg.ConfigPath)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	return runStream(cfg, cliCfg, logger)
}

func runStream(cfg config.Config, cliCfg *CLIConfig, logger *slog.Logger) error {
	var registry *metric.Registry
	var metricsServer *metric.Server
	if cfg.Metrics.Addr != "" {
		registry = metric.NewRegistry()
		metricsServer = metric.NewServer(cfg.Metrics.Addr, cfg.Metrics.Path, registry)
	}

	c, tracker, err := buildPipeline(cfg, logger, registry)
	if err != nil {
		return err
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	// A terminal give-up from the reconnect controller ends the process;
	// an operator restart is more honest than a silent dead stream
	terminal := make(chan struct{})
	c.Subscribe(message.KindMaxRetriesReached, func(message.Envelope) {
		close(terminal)
	})

	if metricsServer != nil {
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		slog.Info("Metrics server started", "addr", cfg.Metrics.Addr)
	}

	c.Connect()
	slog.Info("Event stream client started")

	g, ctx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-terminal:
			return errors.ErrMaxRetriesReached
		}
	})

	g.Go(func() error {
		logSummaries(ctx, tracker)
		return nil
	})

	err = g.Wait()

	slog.Info("Shutting down")
	c.Disconnect()
	if metricsServer != nil {
		if stopErr := metricsServer.Stop(cliCfg.ShutdownTimeout); stopErr != nil {
			slog.Error("Error stopping metrics server", "error", stopErr)
		}
	}

	if err != nil {
		return fmt.Errorf("event stream terminated: %w", err)
	}
	slog.Info("dashwatch shutdown complete")
	return nil
}

func buildPipeline(cfg config.Config, logger *slog.Logger, registry *metric.Registry) (*client.Client, *state.Tracker, error) {
	opts := []client.Option{
		client.WithLogger(logger),
		client.WithBackoff(cfg.Reconnect.Policy()),
	}
	if cfg.HandshakeTimeout > 0 {
		opts = append(opts, client.WithHandshakeTimeout(cfg.HandshakeTimeout))
	}
	if cfg.CommandTimeout > 0 {
		opts = append(opts, client.WithCommandTimeout(cfg.CommandTimeout))
	}
	opts = append(opts, client.WithPingInterval(cfg.PingInterval))
	if registry != nil {
		opts = append(opts, client.WithMetrics(registry))
	}

	c, err := client.New(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}

	var trackerOpts []state.Option
	if registry != nil {
		trackerOpts = append(trackerOpts, state.WithMetrics(registry))
	}
	tracker, err := state.New(logger, trackerOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create tracker: %w", err)
	}
	tracker.Attach(c)

	return c, tracker, nil
}

// logSummaries emits a fleet summary line every 30 seconds while connected
func logSummaries(ctx context.Context, tracker *state.Tracker) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := tracker.Snapshot()
			if !snap.Connected {
				continue
			}
			slog.Info("Fleet summary",
				"workers", snap.Summary.TotalWorkers,
				"healthy", snap.Summary.HealthyWorkers,
				"unhealthy", snap.Summary.UnhealthyWorkers,
				"processed", snap.Summary.TotalProcessed,
				"errors", snap.Summary.TotalErrors,
				"error_rate", snap.Summary.OverallErrorRate)
		}
	}
}
