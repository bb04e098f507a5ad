package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iago/civic-issues-back/internal/auth"
	"github.com/iago/civic-issues-back/internal/cache"
	"github.com/iago/civic-issues-back/internal/config"
	"github.com/iago/civic-issues-back/internal/fixtures"
	httpserver "github.com/iago/civic-issues-back/internal/http"
	"github.com/iago/civic-issues-back/internal/http/handlers"
	"github.com/iago/civic-issues-back/internal/migrations"
	"github.com/iago/civic-issues-back/internal/repository"
	"github.com/iago/civic-issues-back/internal/service"
)

func main() {
	logger := log.New(os.Stdout, "[civic-analytics] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seed, err := fixtures.Load(cfg.SeedFile)
	if err != nil {
		logger.Fatalf("failed loading seed: %v", err)
	}

	reports, directory, storeCloser := setupRepository(ctx, cfg, seed, logger)
	defer storeCloser()

	resolver, resolverCloser := setupResolver(ctx, cfg, seed, logger)
	defer resolverCloser()

	loc, err := cfg.Location()
	if err != nil {
		logger.Printf("unknown BUCKET_TIMEZONE %q, using UTC: %v", cfg.BucketTimezone, err)
	}

	analytics := service.NewAnalyticsService(reports, directory, service.AnalyticsConfig{
		DefaultPeriodDays: cfg.DefaultPeriodDays,
		MaxPeriodDays:     cfg.MaxPeriodDays,
		SourceTimeout:     cfg.SourceTimeout(),
		Location:          loc,
	}, logger)

	handler := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            handlers.NewAPI(analytics, logger),
		Resolver:       resolver,
		Logger:         logger,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		CORSMaxAge:     cfg.CORSMaxAge(),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Printf("api listening on :%s", cfg.Port)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server failed: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func setupRepository(
	ctx context.Context,
	cfg config.Config,
	seed fixtures.Seed,
	logger *log.Logger,
) (repository.ReportRepository, repository.PrincipalDirectory, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory repository")
		return memoryStores(ctx, seed, logger)
	}

	pool, err := repository.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres repository, fallback to memory: %v", err)
		return memoryStores(ctx, seed, logger)
	}
	if cfg.DatabaseMigrate {
		if err := migrations.NewRunner(pool, migrations.Files(), logger).Run(ctx); err != nil {
			pool.Close()
			logger.Printf("failed to run migrations, fallback to memory: %v", err)
			return memoryStores(ctx, seed, logger)
		}
	}

	reports := repository.NewPostgresReportRepository(pool)
	directory := repository.NewPostgresPrincipalDirectory(pool)
	if cfg.SeedFile != "" {
		if err := seed.Store(ctx, reports, directory, time.Now().UTC()); err != nil {
			logger.Printf("failed seeding postgres: %v", err)
		} else {
			logger.Printf("postgres seeded from %s", cfg.SeedFile)
		}
	}
	logger.Printf("postgres repository initialized")
	return reports, directory, pool.Close
}

func memoryStores(
	ctx context.Context,
	seed fixtures.Seed,
	logger *log.Logger,
) (repository.ReportRepository, repository.PrincipalDirectory, func()) {
	reports := repository.NewMemoryReportRepository()
	created, err := seed.Apply(ctx, reports, time.Now().UTC())
	if err != nil {
		logger.Printf("failed seeding memory repository: %v", err)
	}
	logger.Printf("memory repository seeded reports=%d principals=%d", len(created), len(seed.Principals))
	return reports, repository.NewMemoryPrincipalDirectory(seed.Records()...), func() {}
}

func setupResolver(
	ctx context.Context,
	cfg config.Config,
	seed fixtures.Seed,
	logger *log.Logger,
) (auth.Resolver, func()) {
	var (
		base   auth.Resolver
		closer = func() {}
	)

	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using seeded tokens")
		base = auth.NewStaticResolver(seed.Tokens())
	} else {
		sessions, err := auth.NewRedisSessionResolver(ctx, auth.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisSessionPrefix,
		})
		if err != nil {
			logger.Printf("failed to initialize redis sessions, fallback to seeded tokens: %v", err)
			base = auth.NewStaticResolver(seed.Tokens())
		} else {
			logger.Printf("redis session resolver initialized prefix=%s", cfg.RedisSessionPrefix)
			base = sessions
			closer = func() {
				_ = sessions.Close()
			}
		}
	}

	principals := cache.NewPrincipalCache(cache.Config{
		TTL:        cfg.PrincipalCacheTTL(),
		MaxEntries: cfg.PrincipalCacheMaxEntries,
	})
	return auth.NewCachingResolver(base, principals), closer
}
