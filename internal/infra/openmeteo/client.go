package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/weatherwear/internal/domain/weather"
)

const (
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

var currentFields = []string{
	"temperature_2m",
	"apparent_temperature",
	"precipitation_probability",
	"weather_code",
	"wind_speed_10m",
	"uv_index",
}

// Client talks to the Open-Meteo geocoding and forecast APIs.
type Client struct {
	forecastURL  string
	geocodingURL string
	httpClient   *http.Client
}

// NewClient builds an API client.
func NewClient(forecastURL, geocodingURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		forecastURL:  normalizeURL(forecastURL, defaultForecastURL),
		geocodingURL: normalizeURL(geocodingURL, defaultGeocodingURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Geocode resolves a place name using the first geocoding match.
func (c *Client) Geocode(ctx context.Context, query string) (weather.Place, bool, error) {
	params := url.Values{}
	params.Set("name", query)
	params.Set("count", "1")
	params.Set("language", "en")
	params.Set("format", "json")

	var raw geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, params, &raw); err != nil {
		return weather.Place{}, false, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(raw.Results) == 0 {
		return weather.Place{}, false, nil
	}

	top := raw.Results[0]
	return weather.Place{
		Name:        top.Name,
		DisplayName: joinNonEmpty(", ", top.Name, top.Admin1, top.Country),
		Latitude:    top.Latitude,
		Longitude:   top.Longitude,
	}, true, nil
}

// Current fetches current conditions for a place.
func (c *Client) Current(ctx context.Context, place weather.Place) (weather.Conditions, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
	params.Set("current", strings.Join(currentFields, ","))
	params.Set("timezone", "auto")
	params.Set("temperature_unit", "celsius")
	params.Set("wind_speed_unit", "kmh")

	var raw forecastResponse
	if err := c.getJSON(ctx, c.forecastURL, params, &raw); err != nil {
		return weather.Conditions{}, fmt.Errorf("forecast: %w", err)
	}
	if raw.Current == nil {
		return weather.Conditions{}, errors.New("weather provider returned no current data")
	}

	cur := raw.Current
	code := -1
	if cur.WeatherCode != nil {
		code = int(*cur.WeatherCode)
	}
	return weather.Conditions{
		TemperatureC:             valueOrZero(cur.Temperature),
		ApparentTemperatureC:     valueOrZero(cur.ApparentTemperature),
		PrecipitationProbability: valueOrZero(cur.PrecipitationProbability),
		WeatherCode:              code,
		WindKmh:                  valueOrZero(cur.WindSpeed),
		UVIndex:                  valueOrZero(cur.UVIndex),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, base string, params url.Values, out any) error {
	endpoint := base + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type geocodingResponse struct {
	Results []geocodingResult `json:"results"`
}

type geocodingResult struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Admin1    string  `json:"admin1"`
	Country   string  `json:"country"`
}

type forecastResponse struct {
	Current *currentBlock `json:"current"`
}

type currentBlock struct {
	Temperature              *float64 `json:"temperature_2m"`
	ApparentTemperature      *float64 `json:"apparent_temperature"`
	PrecipitationProbability *float64 `json:"precipitation_probability"`
	WeatherCode              *float64 `json:"weather_code"`
	WindSpeed                *float64 `json:"wind_speed_10m"`
	UVIndex                  *float64 `json:"uv_index"`
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

func normalizeURL(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = fallback
	}
	return strings.TrimRight(trimmed, "/")
}

var _ weather.Provider = (*Client)(nil)
