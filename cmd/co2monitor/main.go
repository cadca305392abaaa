// Command co2monitor serves the CO2 trend analysis over HTTP and, when a
// broker is configured, stores the live MQTT feed it analyses.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sartorproj/co2trend/config"
	"github.com/sartorproj/co2trend/ingest"
	"github.com/sartorproj/co2trend/metrics"
	"github.com/sartorproj/co2trend/server"
	"github.com/sartorproj/co2trend/store"
)

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	configFile := flag.String("config", "", "optional YAML config file")
	accessLog := flag.Bool("access-log", true, "write an access log to stdout")
	flag.Parse()

	cfg, err := config.Load(*envFile, *configFile)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *accessLog); err != nil {
		logger.Error("co2monitor stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, accessLog bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storeCfg := store.DefaultConfig()
	storeCfg.Path = cfg.DBPath
	db, err := store.Open(storeCfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("store opened", "path", cfg.DBPath)

	m := metrics.New()

	if cfg.MQTT.Enabled() {
		sub := ingest.NewSubscriber(ingest.Config{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			QoS:      cfg.MQTT.QoS,
		}, db, logger, m)
		if err := sub.Start(ctx); err != nil {
			return err
		}
		defer sub.Stop()
	} else {
		logger.Info("no MQTT broker configured, live feed disabled")
	}

	srvCfg := server.DefaultConfig()
	srvCfg.DemoFile = cfg.DemoFile
	srvCfg.MaxPoints = cfg.MaxPoints
	srvCfg.PollInterval = cfg.PollInterval
	srvCfg.Status = cfg.Status
	srvCfg.Analysis = cfg.AnalysisOptions()
	if accessLog {
		srvCfg.AccessLog = os.Stdout
	}

	srv := server.New(srvCfg, db, logger, m)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "window", cfg.Window, "max_points", cfg.MaxPoints)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
