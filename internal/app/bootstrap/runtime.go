package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Rocketman2178/kairo-platform/internal/catalog"
	appconfig "github.com/Rocketman2178/kairo-platform/internal/config"
	"github.com/Rocketman2178/kairo-platform/internal/matching"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/internal/waitlist"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildCatalogRepository connects the session catalog to Postgres. When no
// database URL is configured it falls back to an empty in-memory catalog so
// local development works without infrastructure.
func BuildCatalogRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (catalog.Repository, *pgxpool.Pool, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("no database configured; using in-memory catalog")
		return catalog.NewInMemoryRepository(), nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect catalog database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping catalog database: %w", err)
	}
	return catalog.NewPostgresRepository(pool, logger), pool, nil
}

// BuildWaitlistService wires the waitlist over database/sql. Returns nil when
// no database is configured; callers degrade to optimistic waitlist positions.
func BuildWaitlistService(cfg *appconfig.Config, logger *logging.Logger, m *metrics.MatchingMetrics) (*waitlist.Service, *sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("no database configured; waitlist positions will be estimates")
		return nil, nil, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: open waitlist database: %w", err)
	}
	repo := waitlist.NewRepository(db)
	return waitlist.NewService(repo, logger, m), db, nil
}

// BuildMatchingEngine assembles the session-matching engine with catalog-backed
// coach ratings and configured result limits.
func BuildMatchingEngine(repo catalog.Repository, cfg *appconfig.Config, logger *logging.Logger, m *metrics.MatchingMetrics) *matching.Engine {
	normalizer := matching.NewNormalizer(catalog.NewRatingService(repo))
	return matching.NewEngine(repo, normalizer, logger,
		matching.WithLimits(cfg.MaxRecommendations, cfg.MaxBroaderMatches, cfg.MaxAlternatives),
		matching.WithMetrics(m),
	)
}
