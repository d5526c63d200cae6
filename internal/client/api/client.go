package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

// ErrDecode marks a response body that did not match the expected shape.
var ErrDecode = errors.New("unexpected response shape")

// StatusError is returned for any non-success HTTP status.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: status=%d", e.Operation, e.StatusCode)
}

// Client calls the weather wear service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient uses a client with
// no timeout; callers bound requests through the context instead.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// Weather looks up current weather for a free-form location.
func (c *Client) Weather(ctx context.Context, query string) (outfit.WeatherSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/weather?query=%s", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return outfit.WeatherSnapshot{}, fmt.Errorf("build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "weather")
	if err != nil {
		return outfit.WeatherSnapshot{}, err
	}
	return decodeWeather(body)
}

// Recommend asks for an outfit for the given weather and preferences.
func (c *Client) Recommend(ctx context.Context, weather outfit.WeatherSnapshot, prefs outfit.Preferences) (outfit.Recommendation, error) {
	payload, err := json.Marshal(outfit.Request{Weather: weather, Preferences: prefs})
	if err != nil {
		return outfit.Recommendation{}, fmt.Errorf("encode recommendation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/recommend", bytes.NewReader(payload))
	if err != nil {
		return outfit.Recommendation{}, fmt.Errorf("build recommendation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "recommendation")
	if err != nil {
		return outfit.Recommendation{}, err
	}
	return decodeRecommendation(body)
}

func (c *Client) do(req *http.Request, operation string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Operation: operation, StatusCode: resp.StatusCode, Body: string(payload)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}
	return body, nil
}

func decodeWeather(body []byte) (outfit.WeatherSnapshot, error) {
	var wire struct {
		Location                 *string  `json:"location"`
		TemperatureF             *float64 `json:"temperature_f"`
		FeelsLikeF               *float64 `json:"feels_like_f"`
		Condition                *string  `json:"condition"`
		PrecipitationProbability *float64 `json:"precipitation_probability"`
		WindMph                  *float64 `json:"wind_mph"`
		UVIndex                  *float64 `json:"uv_index"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return outfit.WeatherSnapshot{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var missing []string
	for name, present := range map[string]bool{
		"location":                  wire.Location != nil,
		"temperature_f":             wire.TemperatureF != nil,
		"feels_like_f":              wire.FeelsLikeF != nil,
		"condition":                 wire.Condition != nil,
		"precipitation_probability": wire.PrecipitationProbability != nil,
		"wind_mph":                  wire.WindMph != nil,
		"uv_index":                  wire.UVIndex != nil,
	} {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return outfit.WeatherSnapshot{}, fmt.Errorf("%w: weather missing %s", ErrDecode, strings.Join(missing, ", "))
	}
	precip := *wire.PrecipitationProbability
	if precip < 0 || precip > 100 || precip != float64(int(precip)) {
		return outfit.WeatherSnapshot{}, fmt.Errorf("%w: precipitation_probability must be an integer between 0 and 100", ErrDecode)
	}

	return outfit.WeatherSnapshot{
		Location:                 *wire.Location,
		TemperatureF:             *wire.TemperatureF,
		FeelsLikeF:               *wire.FeelsLikeF,
		Condition:                *wire.Condition,
		PrecipitationProbability: int(precip),
		WindMph:                  *wire.WindMph,
		UVIndex:                  *wire.UVIndex,
	}, nil
}

func decodeRecommendation(body []byte) (outfit.Recommendation, error) {
	var wire struct {
		Top         *string            `json:"top"`
		Bottom      *string            `json:"bottom"`
		Outerwear   *string            `json:"outerwear"`
		Footwear    *string            `json:"footwear"`
		Accessories []string           `json:"accessories"`
		Confidence  *outfit.Confidence `json:"confidence"`
		Rationale   *string            `json:"rationale"`
		Source      *outfit.Source     `json:"source"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return outfit.Recommendation{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if wire.Top == nil || wire.Bottom == nil || wire.Outerwear == nil || wire.Footwear == nil || wire.Rationale == nil {
		return outfit.Recommendation{}, fmt.Errorf("%w: recommendation missing garment or rationale fields", ErrDecode)
	}
	if wire.Confidence == nil || wire.Confidence.String() == "" {
		return outfit.Recommendation{}, fmt.Errorf("%w: recommendation missing confidence", ErrDecode)
	}
	if wire.Source == nil || !wire.Source.Valid() {
		return outfit.Recommendation{}, fmt.Errorf("%w: recommendation source must be rule or llm", ErrDecode)
	}

	accessories := wire.Accessories
	if accessories == nil {
		accessories = []string{}
	}
	return outfit.Recommendation{
		Top:         *wire.Top,
		Bottom:      *wire.Bottom,
		Outerwear:   *wire.Outerwear,
		Footwear:    *wire.Footwear,
		Accessories: accessories,
		Confidence:  *wire.Confidence,
		Rationale:   *wire.Rationale,
		Source:      *wire.Source,
	}, nil
}
