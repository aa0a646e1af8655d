package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/identity"
	"example.com/exercisetracker/internal/observability"
	"example.com/exercisetracker/internal/outbox"
	"example.com/exercisetracker/internal/persistence/memory"
	"example.com/exercisetracker/internal/persistence/postgres"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, ids, cleanup, err := buildBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage backend unavailable", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer cleanup()

	service := domain.NewService(store, ids)

	handler := api.NewHandler(service, logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.RequestLogger(logger)(httptransport.CORS(cfg.CORSAllowedOrigin)(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("exercise-tracker listening", zap.String("address", cfg.HTTPAddress), zap.String("backend", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildBackend selects the storage backend and its matching identifier strategy. The durable
// backend also starts the outbox dispatcher when Kafka brokers are configured.
func buildBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Store, domain.IDAllocator, func(), error) {
	if cfg.StoreBackend == config.BackendMemory {
		logger.Info("using in-memory store")
		return memory.NewStore(), identity.NewCounter(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(logger, cfg.PostgresURL); err != nil {
			return nil, nil, nil, err
		}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresURL)
	if err != nil {
		return nil, nil, nil, err
	}
	poolCfg.MaxConns = int32(cfg.PostgresMaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	logger.Info("using postgres store")

	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, outbox events will accumulate unpublished")
		return postgres.NewRepository(pool), identity.UUIDAllocator{}, pool.Close, nil
	}

	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	dispatcher := outbox.NewDispatcher(
		outbox.NewPGStore(pool, cfg.OutboxClaimTimeout),
		producer,
		logger,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
	)
	go dispatcher.Start(ctx)

	cleanup := func() {
		dispatcher.Wait()
		if err := producer.Close(); err != nil {
			logger.Warn("closing kafka producer", zap.Error(err))
		}
		pool.Close()
	}
	return postgres.NewRepository(pool), identity.UUIDAllocator{}, cleanup, nil
}
