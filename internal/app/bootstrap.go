package app

import (
	"context"
	"fmt"
	"io"

	"planneat/internal/config"
	"planneat/internal/database"
	"planneat/internal/logger"
	"planneat/internal/mealdb"
	"planneat/internal/metrics"
	"planneat/internal/recipe"
	"planneat/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Bootstrap builds an App from configuration: the SQLite database, the
// configured KV backend, and the TheMealDB source wrapped with
// instrumentation and caching.
func Bootstrap(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	db, err := database.NewDB(cfg.DatabasePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers := []io.Closer{db}
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
		return nil, err
	}

	kv, dataPath, err := newKV(ctx, cfg, db)
	if err != nil {
		return fail(err)
	}
	if c, ok := kv.(*storage.RedisStore); ok {
		closers = append(closers, c)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsStore := metrics.NewStore(db.SQL)
	recorder := metrics.NewRecorder(metrics.NewCollectors(registry), metricsStore, log.Named("metrics"))

	client := mealdb.NewClient(mealdb.Options{
		BaseURL:   cfg.MealDBBaseURL,
		Timeout:   cfg.MealDBTimeout,
		RateLimit: cfg.MealDBRateLimit,
		RateBurst: cfg.MealDBRateBurst,
		Logger:    log.Named("mealdb"),
	})
	var source recipe.Source = mealdb.NewInstrumentedSource(client, recorder)
	var cache *mealdb.CachedSource
	if cfg.RecipeCacheSize > 0 {
		cache = mealdb.NewCachedSource(source, cfg.RecipeCacheSize, cfg.RecipeCacheTTL)
		source = cache
	}

	a := NewApp(ctx, Deps{
		Source:       source,
		KV:           kv,
		Logger:       log,
		Recorder:     recorder,
		MetricsStore: metricsStore,
		Cache:        cache,
		Registry:     registry,
		DataPath:     dataPath,
	})
	a.closers = closers

	log.Info("planneat initialized",
		zap.String("storage_backend", cfg.StorageBackend),
		zap.String("mealdb_base_url", cfg.MealDBBaseURL),
		zap.Int("recipe_cache_size", cfg.RecipeCacheSize))
	return a, nil
}

// newKV opens the configured backend and returns the path whose disk usage
// is reported by Health.
func newKV(ctx context.Context, cfg *config.Config, db *database.DB) (storage.KV, string, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		return storage.NewSQLiteStore(db.SQL), cfg.DatabasePath, nil
	case config.BackendRedis:
		kv, err := storage.NewRedisStore(ctx, storage.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize redis storage: %w", err)
		}
		return kv, cfg.DatabasePath, nil
	case config.BackendMemory:
		return storage.NewMemoryStore(), cfg.DatabasePath, nil
	default:
		kv, err := storage.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return kv, cfg.DataDir, nil
	}
}
