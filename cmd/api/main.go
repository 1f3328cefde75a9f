package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/api/gateway"
	"github.com/feral-file/flightstake-indexer/internal/api/server"
	"github.com/feral-file/flightstake-indexer/internal/config"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/notifier"
	"github.com/feral-file/flightstake-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Level:           cfg.LogLevel,
		Service:         "flightstake-api",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "flightstake-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting FlightStake API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	m := metrics.New()

	// Live-update hub
	presence := notifier.NewPresence()
	statuses := notifier.NewStatusBook()
	hub, err := notifier.NewHubServer(ctx, adapter.NewSignalR(), presence, statuses, clockAdapter, m, cfg.Hub.KeepAlive)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create hub server", zap.Error(err))
	}

	errCh := make(chan error, 2)

	// Relay notifications from the projector to hub clients
	if cfg.NATS.URL != "" {
		nc, js, err := adapter.NewNatsJetStream().Connect(cfg.NATS.URL, notifier.ConnectOptions(notifier.Config{
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		})...)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer nc.Close()

		relay := notifier.NewRelay(js, jsonAdapter, hub, statuses, notifier.RelayConfig{
			StreamName:   cfg.NATS.StreamName,
			ConsumerName: cfg.NATS.ConsumerName,
			AckWait:      cfg.NATS.AckWait,
			MaxDeliver:   cfg.NATS.MaxDeliver,
		})
		go func() {
			if err := relay.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, hub clients receive no live updates")
	}

	// Create and start server
	srv := server.New(server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}, gateway.New(dataStore, clockAdapter), m, hub)

	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "api"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, zap.String("component", "server"))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("FlightStake API stopped")
}
