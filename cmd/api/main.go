package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shownfy/kansai-mansion-analytics/internal/app"
	"github.com/shownfy/kansai-mansion-analytics/internal/cache"
	"github.com/shownfy/kansai-mansion-analytics/internal/config"
	"github.com/shownfy/kansai-mansion-analytics/internal/handlers"
	"github.com/shownfy/kansai-mansion-analytics/internal/metrics"
	"github.com/shownfy/kansai-mansion-analytics/internal/model"
	"github.com/shownfy/kansai-mansion-analytics/internal/ratelimit"
	"github.com/shownfy/kansai-mansion-analytics/internal/scheduler"
	"github.com/shownfy/kansai-mansion-analytics/internal/search"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "path", configPath, "error", err)
		cfg = config.DefaultConfig()
	}
	applyEnv(cfg)

	if err := config.SetupLogger(cfg.Logging); err != nil {
		slog.Warn("Invalid logging config", "error", err)
	}
	slog.Info("Loaded configuration", "path", configPath)

	if !cfg.Logging.LogRequests {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	m := metrics.New()
	a.Engine.WithObserver(m)
	a.Retrain.OnReport(m.ObserveReport)

	// Redis is optional: predictions are cached and rebuilds are locked
	// across replicas when it is reachable.
	if cfg.Cache.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, running without cache", "addr", cfg.Cache.Redis.Addr(), "error", err)
		} else {
			a.OnClose(rc.Close)
			a.Engine.WithCache(rc)
			a.Retrain.WithLocker(rc)
			slog.Info("Redis cache enabled", "addr", cfg.Cache.Redis.Addr(), "ttl", cfg.Cache.Redis.GetTTL())
		}
	}

	ctx := context.Background()
	if err := a.Retrain.Refresh(ctx, nil); err != nil {
		if errors.Is(err, model.ErrArtifactNotFound) {
			slog.Warn("No trained model yet, predictions return 503 until a rebuild", "dir", cfg.Model.Dir)
		} else {
			slog.Error("Failed to load model", "error", err)
		}
	} else {
		slog.Info("Model loaded", "version", a.Engine.Artifact().Version)
	}

	searcher := newSearcher(ctx, cfg, a)

	rateLimiter := ratelimit.FromConfig(cfg.RateLimit)
	slog.Info("Rate limiter initialized",
		"per_minute", cfg.RateLimit.RequestsPerMinute,
		"per_hour", cfg.RateLimit.RequestsPerHour,
		"per_day", cfg.RateLimit.RequestsPerDay,
		"enabled", cfg.RateLimit.Enabled,
	)

	appScheduler := scheduler.NewScheduler(a.Retrain, rateLimiter, cfg.Scheduler)
	if err := appScheduler.Start(); err != nil {
		slog.Warn("Failed to start scheduler", "error", err)
	}
	defer appScheduler.Stop()

	r := handlers.NewRouter(handlers.RouterConfig{
		Engine:         a.Engine,
		Predict:        handlers.NewPredictHandler(a.Engine),
		Master:         handlers.NewMasterHandler(a.Engine, a.Region, searcher, a.Warehouse),
		Admin:          handlers.NewAdminHandler(a.Warehouse, appScheduler, a.Retrain, a.Store, a.Engine),
		Limiter:        rateLimiter,
		Metrics:        m,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LogRequests:    cfg.Logging.LogRequests,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// newSearcher indexes stations and municipalities in Meilisearch when it is
// enabled and falls back to the in-memory index otherwise.
func newSearcher(ctx context.Context, cfg *config.Config, a *app.App) search.Searcher {
	dims, err := a.Warehouse.MunicipalityStats(ctx)
	if err != nil {
		slog.Warn("Failed to load municipality stats for search", "error", err)
	}
	places := search.BuildPlaces(a.Tables, a.Region, dims)

	if cfg.Search.Meilisearch.Enabled {
		client := search.NewSearchClient(cfg.Search.Meilisearch)
		if err := client.InitIndex(); err != nil {
			slog.Warn("Failed to initialize search index", "error", err)
		} else if err := client.Index(places); err != nil {
			slog.Warn("Failed to index places", "error", err)
		} else {
			slog.Info("Meilisearch index ready", "host", cfg.Search.Meilisearch.Host, "places", len(places))
			return client
		}
	}

	local := search.NewLocal()
	local.Index(places)
	slog.Info("Using in-memory search", "places", len(places))
	return local
}

// applyEnv lets container environments override connection settings.
func applyEnv(cfg *config.Config) {
	cfg.Database.Type = getEnv("DB_TYPE", cfg.Database.Type)
	switch cfg.Database.Type {
	case "mysql":
		my := &cfg.Database.MySQL
		my.Host = getEnvOrConfig(my.Host, "DB_HOST", "mysql")
		my.Port = getEnvInt("DB_PORT", my.Port, 3306)
		my.User = getEnvOrConfig(my.User, "DB_USER", "mansion_user")
		my.Password = getEnvOrConfig(my.Password, "DB_PASSWORD", "mansion_pass")
		my.Database = getEnvOrConfig(my.Database, "DB_NAME", "mansion_db")
	case "postgres":
		pg := &cfg.Database.Postgres
		pg.Host = getEnvOrConfig(pg.Host, "DB_HOST", "postgres")
		pg.Port = getEnvInt("DB_PORT", pg.Port, 5432)
		pg.User = getEnvOrConfig(pg.User, "DB_USER", "mansion_user")
		pg.Password = getEnvOrConfig(pg.Password, "DB_PASSWORD", "mansion_pass")
		pg.Database = getEnvOrConfig(pg.Database, "DB_NAME", "mansion_db")
	}

	ms := &cfg.Search.Meilisearch
	ms.Host = getEnvOrConfig(ms.Host, "MEILISEARCH_HOST", "http://meilisearch:7700")
	ms.APIKey = getEnvOrConfig(ms.APIKey, "MEILISEARCH_KEY", "")
	cfg.Cache.Redis.Host = getEnv("REDIS_HOST", cfg.Cache.Redis.Host)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns config value if set, otherwise falls back to environment variable, then default
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}

// getEnvInt prefers a non-zero config value, then the environment, then the default
func getEnvInt(envKey string, configValue, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	if v, err := strconv.Atoi(os.Getenv(envKey)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
