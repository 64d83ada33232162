package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"guardian-shield/internal/api"
	"guardian-shield/internal/api/handlers"
	apimiddleware "guardian-shield/internal/api/middleware"
	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/services"
	"guardian-shield/internal/grpc/guardian"
	"guardian-shield/internal/infrastructure/archive"
	"guardian-shield/internal/infrastructure/cache"
	"guardian-shield/internal/infrastructure/database"
	"guardian-shield/internal/infrastructure/database/repository"
	"guardian-shield/internal/infrastructure/memory"
	"guardian-shield/internal/infrastructure/sqlite"
	"guardian-shield/internal/streaming"
	"guardian-shield/pkg/logger"
)

// recordStore is what the API needs from the analysis store
type recordStore interface {
	services.RecordStore
	services.RecordLister
}

// extensionStore is what the extension service needs from its backend
type extensionStore interface {
	services.ConfigStore
	services.HistoryStore
	services.StatsStore
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	})

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting Guardian Shield")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := make(map[string]handlers.HealthCheck)

	// Record store
	store, closeStore, err := openRecordStore(ctx, cfg, log, checks)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open record store")
	}
	defer closeStore()

	// Redis backs rate limiting and extension state when enabled
	var (
		limiter apimiddleware.Limiter = memory.NewRateLimiter()
		extData extensionStore        = memory.NewExtensionStore()
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, using in-process state")
		} else {
			defer redisCache.Close()
			limiter = redisCache
			extData = redisCache
			checks["redis"] = redisCache.Ping
		}
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event stream")
			natsPublisher = nil
		} else {
			checks["nats"] = func(context.Context) error {
				if !natsPublisher.IsConnected() {
					return streaming.ErrNATSNotConnected
				}
				return nil
			}
		}
	}

	// The bus owns the NATS connection and closes it
	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()

	wsHub := streaming.NewWebSocketHub(log)
	go wsHub.Run(ctx)
	go wsHub.Relay(ctx, eventBus)

	// Analyzer
	rules, err := services.RulesFromConfig(cfg.Detection)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load detection rules")
	}

	opts := []services.AnalyzerOption{
		services.WithRecordStore(store),
		services.WithEventPublisher(streaming.NewEventBusPublisher(eventBus)),
	}
	if cfg.Archive.Enabled {
		media, err := archive.New(ctx, cfg.Archive, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to open media archive, uploads will not be kept")
		} else {
			opts = append(opts, services.WithMediaArchiver(media))
		}
	}

	analyzer := services.NewAnalyzer(rules, &services.AnalyzerConfig{
		PersistTimeout: cfg.Analysis.PersistTimeout,
		BatchLimit:     cfg.Analysis.BatchLimit,
		MaxBatchSize:   cfg.Analysis.MaxBatchSize,
	}, log, opts...)

	extension := services.NewExtensionService(analyzer, extData, extData, extData, cfg.Extension, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Config:    *cfg,
		Analyzer:  analyzer,
		Extension: extension,
		Records:   store,
		WSHub:     wsHub,
		EventBus:  eventBus,
		Checks:    checks,
		Logger:    log,
	})

	router := api.NewRouter(*cfg, h, limiter, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	monitor := guardian.RegisterHealthServer(grpcServer, grpcChecks(checks), guardian.DefaultCheckInterval, log)
	go monitor.Run(ctx)

	go func() {
		log.Info().Str("addr", grpcListener.Addr().String()).Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Let pending saves and publishes finish before the stores close
	analyzer.Wait()

	log.Info().Msg("shutdown complete")
}

// openRecordStore opens the configured analysis store and registers its
// readiness check
func openRecordStore(ctx context.Context, cfg *config.Config, log *logger.Logger, checks map[string]handlers.HealthCheck) (recordStore, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewAnalysisRepository(db.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		checks["postgres"] = db.Ping
		return repo, db.Close, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", db.Path()).Msg("sqlite record store opened")
		checks["sqlite"] = db.Ping
		return db, func() { _ = db.Close() }, nil

	default:
		log.Warn().Msg("using in-memory record store, analyses are lost on restart")
		return memory.NewRecordStore(0), func() {}, nil
	}
}

func grpcChecks(checks map[string]handlers.HealthCheck) map[string]guardian.Check {
	out := make(map[string]guardian.Check, len(checks))
	for name, check := range checks {
		out[name] = guardian.Check(check)
	}
	return out
}
