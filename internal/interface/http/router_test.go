package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
	"github.com/yanqian/weatherwear/internal/domain/weather"
	"github.com/yanqian/weatherwear/internal/infra/config"
	apperrors "github.com/yanqian/weatherwear/pkg/errors"
	"github.com/yanqian/weatherwear/pkg/metrics"
)

var atlanta = outfit.WeatherSnapshot{
	Location:                 "Atlanta, Georgia, United States",
	TemperatureF:             72,
	FeelsLikeF:               70,
	Condition:                "Clear sky",
	PrecipitationProbability: 5,
	WindMph:                  8,
	UVIndex:                  6,
}

func TestRouter_Health(t *testing.T) {
	recorder := performRequest(http.MethodGet, "/api/health", "", newRouterUnderTest(t, &stubWeather{}, &stubOutfit{}, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRouter_WeatherSuccess(t *testing.T) {
	weatherSvc := &stubWeather{lookupFn: func(ctx context.Context, req weather.Request) (outfit.WeatherSnapshot, error) {
		require.Equal(t, "New York, NY", req.Query)
		return atlanta, nil
	}}

	recorder := performRequest(http.MethodGet, "/api/weather?query=New+York%2C+NY", "", newRouterUnderTest(t, weatherSvc, &stubOutfit{}, nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"location":"Atlanta, Georgia, United States","temperature_f":72,"feels_like_f":70,"condition":"Clear sky","precipitation_probability":5,"wind_mph":8,"uv_index":6}`, recorder.Body.String())
}

func TestRouter_WeatherErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"short query", apperrors.Wrap("invalid_input", "query must be at least 2 characters", nil), http.StatusBadRequest, "invalid_request"},
		{"not found", apperrors.Wrap("location_not_found", "Location not found: Atlantis", nil), http.StatusNotFound, "location_not_found"},
		{"provider", apperrors.Wrap("weather_provider_error", "failed to geocode location", io.ErrUnexpectedEOF), http.StatusBadGateway, "weather_provider_error"},
		{"unexpected", io.ErrClosedPipe, http.StatusInternalServerError, "weather_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			weatherSvc := &stubWeather{lookupFn: func(ctx context.Context, req weather.Request) (outfit.WeatherSnapshot, error) {
				return outfit.WeatherSnapshot{}, tc.err
			}}

			recorder := performRequest(http.MethodGet, "/api/weather?query=Atlantis", "", newRouterUnderTest(t, weatherSvc, &stubOutfit{}, nil))
			require.Equal(t, tc.status, recorder.Code)
			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tc.code, errBody["error"]["code"])
			require.NotEmpty(t, errBody["error"]["message"])
		})
	}
}

func TestRouter_WeatherNotFoundMessage(t *testing.T) {
	weatherSvc := &stubWeather{lookupFn: func(ctx context.Context, req weather.Request) (outfit.WeatherSnapshot, error) {
		return outfit.WeatherSnapshot{}, apperrors.Wrap("location_not_found", "Location not found: "+req.Query, nil)
	}}

	recorder := performRequest(http.MethodGet, "/api/weather?query=Atlantis", "", newRouterUnderTest(t, weatherSvc, &stubOutfit{}, nil))
	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "Location not found: Atlantis", errBody["error"]["message"])
}

func TestRouter_RecommendAppliesDefaultPreferences(t *testing.T) {
	rec := outfit.RuleBased(atlanta, outfit.DefaultPreferences())
	outfitSvc := &stubOutfit{recommendFn: func(ctx context.Context, req outfit.Request) (outfit.Recommendation, error) {
		require.Equal(t, atlanta, req.Weather)
		require.Equal(t, outfit.StyleAthleisure, req.Preferences.Style)
		require.Equal(t, outfit.LevelMedium, req.Preferences.ColdSensitivity)
		require.Equal(t, outfit.LevelMedium, req.Preferences.ActivityLevel)
		require.True(t, req.Preferences.CarryUmbrella)
		return rec, nil
	}}
	collector := metrics.NewCollector("weatherwear")

	body := `{"weather":{"location":"Atlanta, Georgia, United States","temperature_f":72,"feels_like_f":70,"condition":"Clear sky","precipitation_probability":5,"wind_mph":8,"uv_index":6},"preferences":{"style":"athleisure"}}`
	server := newRouterUnderTest(t, &stubWeather{}, outfitSvc, collector)
	recorder := performRequest(http.MethodPost, "/api/recommend", body, server)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "rules", got["source"])
	require.Equal(t, 0.72, got["confidence"])
	require.Equal(t, rec.Top, got["top"])

	scrape := performRequest(http.MethodGet, "/metrics", "", server)
	require.Equal(t, http.StatusOK, scrape.Code)
	require.Contains(t, scrape.Body.String(), `weatherwear_recommendations_total{source="rules"} 1`)
	require.Contains(t, scrape.Body.String(), `weatherwear_api_requests_total{endpoint="/api/recommend",method="POST",status="200"} 1`)
}

func TestRouter_RecommendRejectsInvalidPayload(t *testing.T) {
	outfitSvc := &stubOutfit{recommendFn: func(ctx context.Context, req outfit.Request) (outfit.Recommendation, error) {
		t.Fatal("service must not be called")
		return outfit.Recommendation{}, nil
	}}
	server := newRouterUnderTest(t, &stubWeather{}, outfitSvc, nil)

	for name, body := range map[string]string{
		"bad style":        `{"weather":{"location":"Atlanta","precipitation_probability":5},"preferences":{"style":"formal"}}`,
		"missing location": `{"weather":{"precipitation_probability":5}}`,
		"precip range":     `{"weather":{"location":"Atlanta","precipitation_probability":101}}`,
		"not json":         `weather please`,
	} {
		t.Run(name, func(t *testing.T) {
			recorder := performRequest(http.MethodPost, "/api/recommend", body, server)
			require.Equal(t, http.StatusBadRequest, recorder.Code)
			require.Equal(t, "invalid_request", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
		})
	}
}

func TestRouter_RecommendLLMErrorMapsToBadGateway(t *testing.T) {
	outfitSvc := &stubOutfit{recommendFn: func(ctx context.Context, req outfit.Request) (outfit.Recommendation, error) {
		return outfit.Recommendation{}, apperrors.Wrap("llm_error", "chat completion request failed", nil)
	}}

	body := `{"weather":{"location":"Atlanta","precipitation_probability":5}}`
	recorder := performRequest(http.MethodPost, "/api/recommend", body, newRouterUnderTest(t, &stubWeather{}, outfitSvc, nil))
	require.Equal(t, http.StatusBadGateway, recorder.Code)
	require.Equal(t, "llm_error", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_RecentRecommendations(t *testing.T) {
	outfitSvc := &stubOutfit{recentFn: func(ctx context.Context, limit int) ([]outfit.LogEntry, error) {
		require.Equal(t, 5, limit)
		return nil, nil
	}}
	server := newRouterUnderTest(t, &stubWeather{}, outfitSvc, nil)

	recorder := performRequest(http.MethodGet, "/api/recommendations/recent?limit=5", "", server)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"recommendations":[]}`, recorder.Body.String())

	recorder = performRequest(http.MethodGet, "/api/recommendations/recent?limit=abc", "", server)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_CORS(t *testing.T) {
	server := newRouterUnderTest(t, &stubWeather{}, &stubOutfit{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/recommend", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	weatherSvc := &stubWeather{lookupFn: func(ctx context.Context, req weather.Request) (outfit.WeatherSnapshot, error) {
		return atlanta, nil
	}}
	server := NewRouter(cfg, NewHandler(weatherSvc, &stubOutfit{}, nil, newTestLogger()), nil, newTestLogger())

	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/api/weather?query=Atlanta", "", server).Code)
	limited := performRequest(http.MethodGet, "/api/weather?query=Atlanta", "", server)
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, limited.Body.Bytes())["error"]["code"])

	require.Equal(t, http.StatusOK, performRequest(http.MethodGet, "/api/health", "", server).Code)
}

func TestClientLimiterRefills(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := newClientLimiter(config.RateLimitConfig{RequestsPerMinute: 60, Burst: 2}, func() time.Time { return now })

	require.True(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))

	now = now.Add(10 * time.Minute)
	limiter.allow("10.0.0.1")
	require.NotContains(t, limiter.clients, "10.0.0.2")
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			FrontendOrigin: []string{"http://localhost:5173"},
		},
	}
}

func newRouterUnderTest(t *testing.T, weatherSvc weather.Service, outfitSvc outfit.Service, collector *metrics.Collector) *http.Server {
	t.Helper()
	handler := NewHandler(weatherSvc, outfitSvc, collector, newTestLogger())
	return NewRouter(testConfig(), handler, collector, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubWeather struct {
	lookupFn func(ctx context.Context, req weather.Request) (outfit.WeatherSnapshot, error)
}

func (s *stubWeather) Lookup(ctx context.Context, req weather.Request) (outfit.WeatherSnapshot, error) {
	if s.lookupFn != nil {
		return s.lookupFn(ctx, req)
	}
	return outfit.WeatherSnapshot{}, nil
}

type stubOutfit struct {
	recommendFn func(ctx context.Context, req outfit.Request) (outfit.Recommendation, error)
	recentFn    func(ctx context.Context, limit int) ([]outfit.LogEntry, error)
}

func (s *stubOutfit) Recommend(ctx context.Context, req outfit.Request) (outfit.Recommendation, error) {
	if s.recommendFn != nil {
		return s.recommendFn(ctx, req)
	}
	return outfit.Recommendation{}, nil
}

func (s *stubOutfit) Recent(ctx context.Context, limit int) ([]outfit.LogEntry, error) {
	if s.recentFn != nil {
		return s.recentFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubOutfit) CheckModel(ctx context.Context) (bool, string) {
	return false, "disabled"
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
