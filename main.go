package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lib.hemtjan.st/device"
	"lib.hemtjan.st/transport/mqtt"

	"hemtjan.st/openaq/internal/logging"
	"hemtjan.st/openaq/internal/openaq"
	"hemtjan.st/openaq/internal/plugin"
)

const appName = "hemtjanst-openaq"

var (
	version = "unknown"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Parameters:\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Every parameter can also be set in the environment or in the file named by -env-file or ENV_FILE (default .env).\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Version: %s, Commit: %s, Date: %s\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "\n")
	}

	if err := loadEnvFile(envFileFromArgs(os.Args[1:], os.Getenv)); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	mcfg := mqtt.MustFlags(flag.String, flag.Bool)
	cfg, err := parseConfig(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.AppEnv, version, appName)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m, err := mqtt.New(ctx, mcfg())
	if err != nil {
		logger.Error("MQTT: failed to create client", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, m, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
	logger.Info("received shutdown signal, terminating")
}

// transport is the part of the hemtjanst MQTT client we rely on.
type transport interface {
	device.Transport
	Start() (bool, error)
}

func run(ctx context.Context, cfg config, m transport, logger *slog.Logger) error {
	go func() {
		for {
			ok, err := m.Start()
			if err != nil {
				logger.Warn("MQTT error", "error", err)
			}
			if !ok && ctx.Err() == nil {
				logger.Error("MQTT: could not (re)connect")
				os.Exit(1)
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(5 * time.Second)
			logger.Info("MQTT: reconnecting")
		}
	}()

	// Give the transport a moment to connect before the first publish.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
	}

	dev, err := newAirQualitySensor(cfg.DeviceName, cfg.DeviceID, m)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	p := plugin.New(plugin.Config{
		Latitude:   cfg.Latitude,
		Longitude:  cfg.Longitude,
		RadiusKm:   cfg.RadiusKm,
		Limit:      cfg.Limit,
		APIKey:     cfg.Token,
		Credential: credentialFromEnvFile(cfg.EnvFile, os.Getenv),
		Interval:   cfg.Interval,
		Heartbeat:  cfg.Heartbeat,
	}, newSensorRegistry(dev), logger.With("component", "plugin"))

	api := openaq.NewClient(openaq.Options{
		Endpoint:  cfg.Endpoint,
		UserAgent: appName + "/" + version,
		Timeout:   cfg.Timeout,
	})

	logger.Info("starting",
		"version", version,
		"device", cfg.DeviceID,
		"interval", cfg.Interval,
		"log_level", cfg.LogLevel.String(),
	)

	return plugin.NewRuntime(api, cfg.Heartbeat, logger.With("component", "runtime")).Run(ctx, p)
}
