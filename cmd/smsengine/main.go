// Command smsengine runs the SMS delivery engine: an HTTP submission
// endpoint, an optional MQTT submission subscriber, and the background
// worker that drains the durable queue through whichever serial
// modems are configured.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/onprem-sms/engine/engine"
)

func main() {
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the HTTP server")
	flag.String("store-location", "", "SQLite queue location (path or sqlite:// URI)")
	flag.String("modems-file", "", "Path to the JSON modem descriptor file")
	flag.String("strategy", "", "Dispatch strategy: failover, single_carrier, round_robin")
	flag.Int("retry-limit", 0, "Cooled-down FAILED records eligible for reclaiming per worker cycle")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("mqtt-broker", "", "MQTT broker URL for inbound submission (disabled if empty)")
	flag.String("mqtt-topic", "", "MQTT topic subscribed to for submissions")
	iniPath := flag.String("config", "/etc/smsengine/smsengine.ini", "Path to an optional INI config file")
	flag.Parse()

	cfg, err := LoadConfig(WithDefaults(), WithIniFile(*iniPath), WithEnv(), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))

	modemsData, err := os.ReadFile(cfg.ModemsFile)
	if err != nil {
		logger.Error("failed to read modems file", "path", cfg.ModemsFile, "error", err)
		os.Exit(1)
	}
	descriptors, err := engine.DecodeModemDescriptors(modemsData)
	if err != nil {
		logger.Error("failed to decode modems file", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Start(ctx, logger, cfg.StoreLocation, descriptors, cfg.Strategy, cfg.RetryLimit)
	if err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	mqttClient, err := startMQTT(logger, cfg, eng)
	if err != nil {
		logger.Error("failed to start MQTT ingestion", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr: cfg.BindAddress,
		Handler: (&Server{
			Logger: logger.With("component", "server"),
			Engine: eng,
		}).Routes(),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		return nil
	})

	<-groupCtx.Done()
	logger.Info("shutting down", "reason", context.Cause(groupCtx))

	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := eng.Close(shutdownCtx); err != nil {
		logger.Error("failed to close engine", "error", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to gracefully shut down HTTP server", "error", err)
		os.Exit(1)
	}

	if err := group.Wait(); err != nil {
		logger.Error("server group exited with error", "error", err)
		os.Exit(1)
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
