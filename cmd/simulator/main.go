package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/avsim/flight-monitor/pkg/config"
	"github.com/avsim/flight-monitor/pkg/monitor"
	"github.com/avsim/flight-monitor/pkg/telemetry"
)

const version = "v1.0.0"

var log = logrus.New()

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration: defaults, optional YAML file, then the two
	// optional positional arguments (duration seconds, update rate Hz).
	cfg := config.DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			log.WithError(err).Warn("Could not load config file, continuing with defaults")
		}
	}

	initLogger(cfg)

	for _, warning := range cfg.ApplyArgs(os.Args[1:]) {
		log.Warn(warning)
	}

	log.WithFields(logrus.Fields{
		"version":    version,
		"duration":   cfg.Simulation.Duration,
		"updateRate": cfg.Simulation.UpdateRateHz,
		"seed":       cfg.Simulation.Seed,
	}).Info("Starting avionics flight simulator")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("Invalid configuration")
		return 1
	}

	// Wire the core around the telemetry sink.
	sink := telemetry.New(telemetry.Config{
		Directory:          cfg.Telemetry.Directory,
		EventLogMaxSizeMB:  cfg.Telemetry.EventLogMaxSizeMB,
		EventLogMaxBackups: cfg.Telemetry.EventLogMaxBackups,
	})

	orch := monitor.New(cfg, sink, log)

	if err := orch.Initialize(); err != nil {
		log.WithError(err).Error("Failed to initialize avionics subsystems")
		return 1
	}

	// The signal handler only sets the cancellation handle; the run loop
	// reacts to it at cycle boundaries and always finishes the record in
	// flight before shutting down.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Simulation.StatusPort > 0 {
		srv := monitor.NewServer(orch, cfg.Simulation.StatusPort, log)
		g.Go(func() error {
			return srv.Start(gctx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return orch.Run(gctx, cfg.Simulation.Duration, cfg.Simulation.UpdateRateHz)
	})

	err := g.Wait()

	summary := orch.Summarize()
	log.WithFields(logrus.Fields{
		"cycles":       summary.Cycles,
		"finalPhase":   summary.FinalPhase.String(),
		"activeFaults": summary.ActiveFaults,
		"systemSafe":   summary.Safe,
		"completed":    summary.Completed,
	}).Info("Simulation statistics")

	if closeErr := orch.Close(); closeErr != nil {
		log.WithError(closeErr).Warn("Failed to close telemetry sink cleanly")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Simulation error")
		return 1
	}

	log.Info("Shutdown complete")
	return 0
}

func initLogger(cfg *config.Config) {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	switch cfg.Logging.Level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	if cfg.Logging.Structured {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	log.SetOutput(os.Stdout)
}
