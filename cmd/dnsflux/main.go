// Package main provides the dnsflux entry point: load configuration, set up
// logging, run the export loop until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"dnsflux/internal/config"
	"dnsflux/internal/exporter"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "path to configuration file (default /etc/dnsflux/config.yml)")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("dnsflux - DNS statistics exporter\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Built:      %s\n", buildDate)
		fmt.Printf("Go version: %s\n", runtime.Version())
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogging(cfg.LogLevel, cfg.LogFile)
	logger.Info("starting dnsflux",
		"version", version,
		"instance", cfg.Instance,
		"ctl_socket", cfg.CtlSocket,
		"endpoint", fmt.Sprintf("%s:%d/%s", cfg.InfluxHost, cfg.InfluxPort, cfg.InfluxDB),
		"interval", cfg.Interval.String())

	run(cfg, logger)
}

// run executes the export loop with signal handling. An interrupt cancels
// the loop's context; the loop honors it at the next sleep boundary.
func run(cfg *config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exp := exporter.New(cfg, logger)
	defer exp.Close()

	loopErrors := make(chan error, 1)
	go func() {
		loopErrors <- exp.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
		// Let the in-flight cycle finish before exiting.
		select {
		case <-loopErrors:
		case <-time.After(30 * time.Second):
			logger.Warn("shutdown timed out waiting for the current cycle")
		}
		logger.Info("dnsflux stopped")
	case err := <-loopErrors:
		if err != nil && ctx.Err() == nil {
			logger.Error("export loop failed", "error", err)
			os.Exit(1)
		}
	}
}

// setupLogging configures structured JSON logging, writing to the given
// file when set and falling back to stderr.
func setupLogging(level, logFile string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	output := os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open log file %s: %v. Logging to stderr.\n", logFile, err)
		} else {
			output = file
		}
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
