package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/telepoint/emi-portal/internal/auth"
	"github.com/telepoint/emi-portal/internal/cache"
	"github.com/telepoint/emi-portal/internal/config"
	"github.com/telepoint/emi-portal/internal/core"
	"github.com/telepoint/emi-portal/internal/database"
	"github.com/telepoint/emi-portal/internal/logging"
	"github.com/telepoint/emi-portal/internal/metrics"
	"github.com/telepoint/emi-portal/internal/web"
)

func main() {
	// Overload lets a local .env win over stale shell exports.
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"import_max_rows", cfg.Import.MaxRows,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"redis", cfg.Redis.URL != "",
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := database.New(pool)
	health := []web.HealthCheck{{Name: "postgres", Ping: pool.Ping}}

	jobCtx, cancelJobs := context.WithCancel(context.Background())

	var reports core.ReportStore
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		redisReports := cache.NewReportStore(client, cfg.Redis.KeyPrefix, cfg.Reports.Retention)
		reports = redisReports
		health = append(health, web.HealthCheck{Name: "redis", Ping: redisReports.Ping})
		slog.Info("import reports stored in redis", "retention", cfg.Reports.Retention)
	} else {
		memReports := core.NewMemoryReportStore(cfg.Reports.Retention)
		reports = memReports
		go core.StartReportPruner(jobCtx, memReports, cfg.Reports.PruneInterval)
		slog.Info("import reports kept in memory", "retention", cfg.Reports.Retention)
	}

	m := metrics.New()
	limiter := core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)

	service := core.NewService(store, reports, limiter, m, core.ServiceConfig{
		MaxRows:       cfg.Import.MaxRows,
		ImportTimeout: cfg.Import.Timeout,
		UpcomingDays:  cfg.Portal.UpcomingDays,
		SearchLimit:   cfg.Portal.SearchLimit,
		Location:      cfg.Portal.Location(),
	})

	server := web.NewServer(cfg, web.Deps{
		Service: service,
		Tokens:  auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Metrics: m,
		Health:  health,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
