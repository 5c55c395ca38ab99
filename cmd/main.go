package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/okian/syncops/internal/adapters/http/api"
	"github.com/okian/syncops/internal/adapters/http/site"
	"github.com/okian/syncops/internal/adapters/http/swagger"
	"github.com/okian/syncops/internal/adapters/repository"
	service "github.com/okian/syncops/internal/app"
	"github.com/okian/syncops/internal/config"
	"github.com/okian/syncops/internal/domain/scoring"
	"github.com/okian/syncops/pkg/logger"
	"github.com/okian/syncops/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString("syncops: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	svc, err := newService(cfg, store, log)
	if err != nil {
		return err
	}
	// Ingestion outlives the signal context; Stop drains it.
	if err := svc.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(err))
		}
	}()

	go startServiceMetricsUpdater(ctx, svc)

	handler, err := newHandler(ctx, cfg, svc)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newStore opens the configured catalogue backend. The returned func
// releases it.
func newStore(ctx context.Context, cfg *config.Config) (repository.Catalogue, func(), error) {
	if cfg.Store != config.StoreRedis {
		return repository.NewMemoryStore(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := repository.NewRedisStore(client, repository.WithKeyPrefix(cfg.RedisPrefix))
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return store, func() { _ = client.Close() }, nil
}

func newService(cfg *config.Config, store repository.Catalogue, log logger.Logger) (*service.Service, error) {
	formula, err := scoring.ParseFormula(cfg.DefaultFormula)
	if err != nil {
		return nil, err
	}
	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithEngine(scoring.NewEngine(scoring.WithDefaultFormula(formula), scoring.WithLogger(log.Named("scoring")))),
		service.WithStore(store),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSeed(cfg.Seed),
	}
	if cfg.FixturesPath != "" {
		f, err := os.Open(cfg.FixturesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open fixtures: %w", err)
		}
		defer f.Close()
		fx, err := repository.LoadFixtures(f)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithFixtures(fx))
	}
	return service.New(opts...), nil
}

// newHandler registers every route and wraps the mux with CORS.
func newHandler(ctx context.Context, cfg *config.Config, svc *service.Service) (http.Handler, error) {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	apiServer, err := api.NewServer(svc, cfg.MaxLeaderboardLimit)
	if err != nil {
		return nil, err
	}
	apiServer.Register(ctx, mux)
	return api.CORS(cfg.CORSOrigins)(mux), nil
}

// startServiceMetricsUpdater refreshes queue and catalogue gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.Stats(ctx)
	if n, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(n)
	}
	if n, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(n)
	}
	if n, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(n)
	}
}
