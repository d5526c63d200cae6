package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/internal/domain/weather"
)

func TestClientGeocodeAndCurrent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Atlanta", r.URL.Query().Get("name"))
		require.Equal(t, "1", r.URL.Query().Get("count"))
		w.Write([]byte(`{"results":[{"name":"Atlanta","latitude":33.749,"longitude":-84.388,"admin1":"Georgia","country":"United States"}]}`))
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "33.749", r.URL.Query().Get("latitude"))
		require.Equal(t, "kmh", r.URL.Query().Get("wind_speed_unit"))
		w.Write([]byte(`{"current":{"temperature_2m":22.2,"apparent_temperature":21.1,"precipitation_probability":null,"weather_code":0,"wind_speed_10m":12.9,"uv_index":6}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL+"/forecast/", server.URL+"/search", time.Second)

	place, found, err := client.Geocode(context.Background(), "Atlanta")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Atlanta, Georgia, United States", place.DisplayName)

	conditions, err := client.Current(context.Background(), place)
	require.NoError(t, err)
	require.Equal(t, weather.Conditions{
		TemperatureC:         22.2,
		ApparentTemperatureC: 21.1,
		WeatherCode:          0,
		WindKmh:              12.9,
		UVIndex:              6,
	}, conditions)
}

func TestClientGeocodeNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	defer server.Close()

	client := NewClient("", server.URL, time.Second)
	_, found, err := client.Geocode(context.Background(), "Nowhere")
	require.NoError(t, err)
	require.False(t, found)
}

func TestClientCurrentMissingBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.Current(context.Background(), weather.Place{Latitude: 1, Longitude: 2})
	require.ErrorContains(t, err, "no current data")
}

func TestClientStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, time.Second)
	_, _, err := client.Geocode(context.Background(), "Atlanta")
	require.ErrorContains(t, err, "status=503")
}

func TestJoinNonEmpty(t *testing.T) {
	require.Equal(t, "Paris, France", joinNonEmpty(", ", "Paris", "", "France"))
	require.Equal(t, "", joinNonEmpty(", ", "", " "))
}
