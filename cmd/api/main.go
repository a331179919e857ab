package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/audit-service/internal/adapter/chromedp_fetcher"
	"github.com/user/audit-service/internal/adapter/genai_generator"
	"github.com/user/audit-service/internal/adapter/http_fetcher"
	"github.com/user/audit-service/internal/adapter/memory"
	"github.com/user/audit-service/internal/adapter/postgres"
	redis_adapter "github.com/user/audit-service/internal/adapter/redis"
	"github.com/user/audit-service/internal/delivery/http/handler"
	"github.com/user/audit-service/internal/delivery/http/router"
	"github.com/user/audit-service/internal/integrity"
	"github.com/user/audit-service/internal/recommend"
	"github.com/user/audit-service/internal/repository"
	"github.com/user/audit-service/internal/usecase"
	"github.com/user/audit-service/pkg/config"
	"github.com/user/audit-service/pkg/logger"
	"github.com/user/audit-service/pkg/metrics"
)

const (
	browserConcurrency = 4
	requestTimeout     = 60 * time.Second
	shutdownTimeout    = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("Logger initialized", zap.String("level", cfg.LogLevel))

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Repositories ---
	var (
		reports repository.ReportRepository     = memory.NewReportRepo()
		cache   repository.AuditCacheRepository = memory.NewCacheRepo(nil)
	)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		cache = redis_adapter.NewCacheRepo(rdb)
		reports = redis_adapter.NewReportRepo(rdb)
		log.Info("Redis connection established", zap.String("addr", cfg.RedisAddr))
	}

	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer dbpool.Close()
		if err := dbpool.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		pgReports := postgres.NewReportRepo(dbpool)
		if err := pgReports.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		reports = pgReports
		log.Info("PostgreSQL connection pool established")
	}

	// --- Collaborators ---
	var fetcher repository.PageFetcher
	switch cfg.FetchMode {
	case "browser":
		browser := chromedp_fetcher.NewChromedpFetcher(browserConcurrency, log.Named("browser"))
		defer browser.Close()
		fetcher = browser
	default:
		fetcher = http_fetcher.NewHTTPFetcher(cfg.FetchRatePerSecond)
	}
	log.Info("Page fetcher ready", zap.String("mode", cfg.FetchMode))

	var recommender repository.Recommender = recommend.NewFallback(nil)
	if cfg.GenerationEnabled() {
		gen, err := genai_generator.NewGenAIGenerator(ctx, genai_generator.Config{
			APIKey:  cfg.GenAIAPIKey,
			Model:   cfg.GenAIModel,
			Timeout: cfg.GenerationTimeout(),
		})
		if err != nil {
			return err
		}
		recommender = recommend.NewGenerative(gen, nil, log.Named("recommend"))
	}
	log.Info("Recommendation strategy selected", zap.String("strategy", string(recommender.Strategy())))

	// --- Use Cases ---
	auditor := usecase.NewAuditUseCase(fetcher, recommender, reports, cache, m, log.Named("audit"), usecase.AuditOptions{
		FetchPolicy: repository.FetchPolicy{
			Timeout:      cfg.FetchTimeout(),
			MaxRedirects: cfg.FetchMaxRedirects,
			MaxBytes:     cfg.FetchMaxBytes,
		},
		CacheTTL: cfg.CacheTTL(),
	})
	query := usecase.NewReportQuery(reports, cache, nil)
	integ := usecase.NewIntegrityUseCase(reports, integrity.NewRegistry(cfg.PublicBaseURL, nil))
	sweeper := usecase.NewCacheSweeper(cache, cfg.CacheSweepInterval(), m, log.Named("sweeper"))

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(auditor, query, integ, recommender.Strategy(), log.Named("http"))
	httpRouter := router.New(apiHandler, router.Options{
		AllowedOrigins: cfg.Origins(),
		RequestTimeout: requestTimeout,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         log.Named("access"),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	sweeper.Start(gctx)

	g.Go(func() error {
		log.Info("Starting server", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on port %s: %w", cfg.ServerPort, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		sweeper.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
