package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP           HTTPConfig           `yaml:"http"`
	LLM            LLMConfig            `yaml:"llm"`
	Weather        WeatherConfig        `yaml:"weather"`
	Geocode        GeocodeConfig        `yaml:"geocode"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	FrontendOrigin []string        `yaml:"frontendOrigin"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the per client request limiter.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains settings for the OpenAI compatible chat endpoint.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Prompt      string        `yaml:"prompt"`
}

// WeatherConfig points at the upstream weather provider.
type WeatherConfig struct {
	ForecastURL    string        `yaml:"forecastUrl"`
	GeocodingURL   string        `yaml:"geocodingUrl"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	MinQueryLength int           `yaml:"minQueryLength"`
}

// GeocodeConfig controls the geocode cache.
type GeocodeConfig struct {
	CacheTTL time.Duration `yaml:"cacheTtl"`
	Redis    RedisConfig   `yaml:"redis"`
}

// RecommendationConfig controls the recommendation log.
type RecommendationConfig struct {
	LogLimit int            `yaml:"logLimit"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("FRONTEND_ORIGIN"); v != "" {
		cfg.HTTP.FrontendOrigin = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("LLM_API_KEY")); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_PROMPT"); v != "" {
		cfg.LLM.Prompt = v
	}
	if v := os.Getenv("WEATHER_API_BASE_URL"); v != "" {
		cfg.Weather.ForecastURL = v
	}
	if v := os.Getenv("GEOCODING_API_BASE_URL"); v != "" {
		cfg.Weather.GeocodingURL = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Weather.RequestTimeout = parsed
			cfg.LLM.Timeout = parsed
		}
	}
	if v := os.Getenv("GEOCODE_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Geocode.CacheTTL = parsed
		}
	}
	if v := os.Getenv("GEOCODE_REDIS_ENABLED"); v != "" {
		cfg.Geocode.Redis.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("GEOCODE_REDIS_ADDR"); v != "" {
		cfg.Geocode.Redis.Addr = v
	}
	if v := os.Getenv("RECOMMENDATION_LOG_POSTGRES_DSN"); v != "" {
		cfg.Recommendation.Postgres.DSN = v
	}
	if v := os.Getenv("RECOMMENDATION_LOG_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Recommendation.LogLimit = parsed
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8000",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			FrontendOrigin: []string{"http://localhost:5173"},
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 120,
				Burst:             30,
			},
		},
		LLM: LLMConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai",
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
			Timeout:     10 * time.Second,
			Prompt:      "You are a weather stylist assistant.",
		},
		Weather: WeatherConfig{
			ForecastURL:    "https://api.open-meteo.com/v1/forecast",
			GeocodingURL:   "https://geocoding-api.open-meteo.com/v1/search",
			RequestTimeout: 10 * time.Second,
			MinQueryLength: 2,
		},
		Geocode: GeocodeConfig{
			CacheTTL: 24 * time.Hour,
		},
		Recommendation: RecommendationConfig{
			LogLimit: 50,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled && (c.HTTP.RateLimit.RequestsPerMinute <= 0 || c.HTTP.RateLimit.Burst <= 0) {
		return errors.New("http.rateLimit requires positive requestsPerMinute and burst when enabled")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.Weather.ForecastURL == "" {
		return errors.New("weather.forecastUrl cannot be empty")
	}
	if c.Weather.GeocodingURL == "" {
		return errors.New("weather.geocodingUrl cannot be empty")
	}
	if c.Weather.RequestTimeout <= 0 {
		return errors.New("weather.requestTimeout must be positive")
	}
	if c.Weather.MinQueryLength <= 0 {
		return errors.New("weather.minQueryLength must be positive")
	}
	if c.Geocode.CacheTTL < 0 {
		return errors.New("geocode.cacheTtl cannot be negative")
	}
	if c.Geocode.Redis.Enabled && strings.TrimSpace(c.Geocode.Redis.Addr) == "" {
		return errors.New("geocode.redis.addr cannot be empty when redis cache is enabled")
	}
	if c.Recommendation.LogLimit < 0 {
		return errors.New("recommendation.logLimit cannot be negative")
	}
	return nil
}

// LLMEnabled reports whether an API key is configured.
func (c *Config) LLMEnabled() bool {
	return strings.TrimSpace(c.LLM.APIKey) != ""
}

// ClientConfig is the configuration of the terminal client.
type ClientConfig struct {
	APIBaseURL string
}

const defaultAPIBaseURL = "http://localhost:8000"

// LoadClient reads the client configuration from the environment.
func LoadClient() ClientConfig {
	base := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if base == "" {
		base = defaultAPIBaseURL
	}
	return ClientConfig{APIBaseURL: strings.TrimRight(base, "/")}
}
