package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
	apperrors "github.com/yanqian/weatherwear/pkg/errors"
	"github.com/yanqian/weatherwear/pkg/metrics"
)

// Service resolves a free-form location into a weather snapshot.
type Service interface {
	Lookup(ctx context.Context, req Request) (outfit.WeatherSnapshot, error)
}

// Provider is the upstream weather data source.
type Provider interface {
	Geocode(ctx context.Context, query string) (Place, bool, error)
	Current(ctx context.Context, place Place) (Conditions, error)
}

// GeoCache stores geocoding results keyed by normalized query.
type GeoCache interface {
	Get(ctx context.Context, key string) (Place, bool, error)
	Put(ctx context.Context, key string, place Place, ttl time.Duration) error
}

type service struct {
	cfg      Config
	provider Provider
	cache    GeoCache
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewService wires up the weather domain. cache and collector may be nil.
func NewService(cfg Config, provider Provider, cache GeoCache, collector *metrics.Collector, logger *slog.Logger) Service {
	if cfg.MinQueryLength <= 0 {
		cfg.MinQueryLength = 2
	}
	return &service{
		cfg:      cfg,
		provider: provider,
		cache:    cache,
		metrics:  collector,
		logger:   logger.With("component", "weather.service"),
	}
}

func (s *service) Lookup(ctx context.Context, req Request) (outfit.WeatherSnapshot, error) {
	query := strings.TrimSpace(req.Query)
	if len([]rune(query)) < s.cfg.MinQueryLength {
		return outfit.WeatherSnapshot{}, apperrors.Wrap("invalid_input", fmt.Sprintf("query must be at least %d characters", s.cfg.MinQueryLength), nil)
	}

	place, err := s.resolve(ctx, query)
	if err != nil {
		return outfit.WeatherSnapshot{}, err
	}

	start := time.Now()
	conditions, err := s.provider.Current(ctx, place)
	s.observe("forecast", start)
	if err != nil {
		return outfit.WeatherSnapshot{}, apperrors.Wrap("weather_provider_error", "failed to fetch current conditions", err)
	}
	s.logger.Info("weather snapshot fetched", "query", query, "location", place.DisplayName, "code", conditions.WeatherCode)

	return toSnapshot(place, conditions), nil
}

func (s *service) resolve(ctx context.Context, query string) (Place, error) {
	key := cacheKey(query)
	if s.cache != nil {
		place, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.recordCache("error")
			s.logger.Warn("geocode cache read failed", "query", query, "error", err)
		case ok:
			s.recordCache("hit")
			return place, nil
		default:
			s.recordCache("miss")
		}
	}

	start := time.Now()
	place, found, err := s.provider.Geocode(ctx, query)
	s.observe("geocode", start)
	if err != nil {
		return Place{}, apperrors.Wrap("weather_provider_error", "failed to geocode location", err)
	}
	if !found {
		return Place{}, apperrors.Wrap("location_not_found", "Location not found: "+query, nil)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, place, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("geocode cache write failed", "query", query, "error", err)
		}
	}
	return place, nil
}

func (s *service) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveProvider(operation, time.Since(start).Seconds())
	}
}

func (s *service) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.RecordGeocodeCache(result)
	}
}

func toSnapshot(place Place, c Conditions) outfit.WeatherSnapshot {
	return outfit.WeatherSnapshot{
		Location:                 firstNonEmpty(place.DisplayName, place.Name),
		TemperatureF:             roundTenth(celsiusToFahrenheit(c.TemperatureC)),
		FeelsLikeF:               roundTenth(celsiusToFahrenheit(c.ApparentTemperatureC)),
		Condition:                ConditionFor(c.WeatherCode),
		PrecipitationProbability: int(math.Round(c.PrecipitationProbability)),
		WindMph:                  roundTenth(kmhToMph(c.WindKmh)),
		UVIndex:                  roundTenth(c.UVIndex),
	}
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
