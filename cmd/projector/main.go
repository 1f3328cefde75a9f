package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/flightstake-indexer/internal/adapter"
	"github.com/feral-file/flightstake-indexer/internal/block"
	"github.com/feral-file/flightstake-indexer/internal/config"
	"github.com/feral-file/flightstake-indexer/internal/connection"
	"github.com/feral-file/flightstake-indexer/internal/domain"
	"github.com/feral-file/flightstake-indexer/internal/logger"
	"github.com/feral-file/flightstake-indexer/internal/metrics"
	"github.com/feral-file/flightstake-indexer/internal/notifier"
	"github.com/feral-file/flightstake-indexer/internal/projector"
	"github.com/feral-file/flightstake-indexer/internal/providers/ethereum"
	"github.com/feral-file/flightstake-indexer/internal/router"
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
	cfg, err := config.LoadProjectorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		Level:           cfg.LogLevel,
		Service:         "flightstake-projector",
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "flightstake-projector",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting FlightStake projector")

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	fs := adapter.NewFileSystem()
	natsJS := adapter.NewNatsJetStream()
	ethDialer := adapter.NewEthClientDialer()

	// Initialize store
	var dataStore store.Store
	switch cfg.Storage {
	case config.StorageMemory:
		logger.WarnCtx(ctx, "Using in-memory storage, the projection is lost on restart")
		dataStore = store.NewMemoryStore(clockAdapter)
	default:
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
		}
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}
		if err := store.Migrate(ctx, db); err != nil {
			logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
		}
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)
		dataStore = store.NewPGStore(db)
	}

	m := metrics.New()

	// Initialize notifier, optional
	events := notifier.Nop()
	if cfg.NATS.URL != "" {
		events, err = notifier.NewJetStreamNotifier(ctx, notifier.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			MaxAge:         cfg.NATS.MaxAge,
			PublishTimeout: cfg.NATS.PublishTimeout,
		}, natsJS, jsonAdapter, clockAdapter, m)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create notifier", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, change notifications are disabled")
	}
	defer events.Close()

	// Build one decoder per source contract
	sources := make([]connection.SourceConfig, 0, len(domain.AllSources))
	for _, source := range domain.AllSources {
		contract := cfg.Contracts.ForSource(source)
		parsed, err := ethereum.LoadABI(fs, source, contract.ABIPath)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to load contract ABI", zap.Error(err), zap.String("source", string(source)))
		}
		sources = append(sources, connection.SourceConfig{
			Source:  source,
			Address: contract.Address,
			Decoder: ethereum.NewDecoder(source, parsed),
		})
	}

	dispatcher := router.New(projector.New(cfg.Ledger.TokenDecimals), dataStore, events, m, clockAdapter)

	manager, err := connection.NewManager(connection.Config{
		WebSocketURL:     cfg.Ledger.WebSocketURL,
		StartBlock:       cfg.Ledger.StartBlock,
		ReconnectWait:    cfg.Ledger.ReconnectWait,
		MaxReconnectWait: cfg.Ledger.MaxReconnectWait,
		Jitter:           cfg.Ledger.ReconnectJitter,
		LogPageSize:      cfg.Ledger.LogPageSize,
		BlockCache: block.Config{
			TTL:                cfg.Ledger.BlockHeadTTL,
			StaleWindow:        cfg.Ledger.BlockHeadStaleWindow,
			TimestampCacheSize: cfg.Ledger.TimestampCacheSize,
		},
		Sources: sources,
	}, ethDialer, dataStore, dispatcher, events, m, clockAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create connection manager", zap.Error(err))
	}

	// Serve metrics and source health
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sources": manager.Statuses()})
	})
	metricsServer := &http.Server{
		Addr:              cfg.Metrics.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.InfoCtx(ctx, "Serving metrics", zap.String("address", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	// Start the connection manager
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := manager.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "projector"))
		cancel()
	}

	// Shutdown with a fresh context since ctx is canceled
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("Connection manager did not stop in time")
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, zap.String("component", "metrics"))
	}

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("FlightStake projector stopped")
}
