package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
	"github.com/yanqian/weatherwear/internal/domain/weather"
	"github.com/yanqian/weatherwear/internal/infra/config"
	"github.com/yanqian/weatherwear/internal/infra/geocache"
	"github.com/yanqian/weatherwear/internal/infra/llm/chatgpt"
	"github.com/yanqian/weatherwear/internal/infra/openmeteo"
	"github.com/yanqian/weatherwear/internal/infra/recolog"
	"github.com/yanqian/weatherwear/pkg/metrics"
)

const metricsNamespace = "weatherwear"

func provideMetricsCollector() *metrics.Collector {
	return metrics.NewCollector(metricsNamespace)
}

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{
		MinQueryLength: cfg.Weather.MinQueryLength,
		CacheTTL:       cfg.Geocode.CacheTTL,
	}
}

func provideOutfitConfig(cfg *config.Config) outfit.Config {
	return outfit.Config{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Prompt:      cfg.LLM.Prompt,
		LLMEnabled:  cfg.LLMEnabled(),
		LogLimit:    cfg.Recommendation.LogLimit,
	}
}

func provideWeatherProvider(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(cfg.Weather.ForecastURL, cfg.Weather.GeocodingURL, cfg.Weather.RequestTimeout)
}

// provideChatClient returns a nil client when no key is configured so the
// outfit service stays rule based.
func provideChatClient(cfg *config.Config, collector *metrics.Collector, logger *slog.Logger) outfit.ChatClient {
	if !cfg.LLMEnabled() {
		logger.Info("llm api key not set, recommendations are rule based")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout, collector)
	if err != nil {
		logger.Error("failed to build llm client, recommendations are rule based", "error", err)
		return nil
	}
	return client
}

func provideGeoCache(cfg *config.Config, logger *slog.Logger) weather.GeoCache {
	if cfg.Geocode.Redis.Enabled {
		opt, err := buildValkeyOptions(cfg.Geocode.Redis.Addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory geocode cache", "error", err)
			return geocache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory geocode cache", "error", err)
			return geocache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory geocode cache", "error", err)
			client.Close()
		} else {
			logger.Info("geocode valkey cache enabled", "addr", cfg.Geocode.Redis.Addr)
			return geocache.NewValkeyStore(client, "weatherwear:geocode")
		}
	}
	return geocache.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideRecommendationLog(cfg *config.Config, logger *slog.Logger) outfit.LogRepository {
	fallback := recolog.NewMemoryRepository(0)
	dsn := strings.TrimSpace(cfg.Recommendation.Postgres.DSN)
	if dsn == "" {
		logger.Info("recommendation log postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Recommendation.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Recommendation.Postgres.MaxConns
	}
	if cfg.Recommendation.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Recommendation.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := recolog.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare recommendation log schema, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("recommendation log postgres repository enabled")
	return repo
}
