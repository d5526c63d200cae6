package weather

import "time"

// Request captures the query accepted by the weather endpoint.
type Request struct {
	Query string `form:"query"`
}

// Place is a geocoded location.
type Place struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Conditions are current observations in the provider's metric units.
type Conditions struct {
	TemperatureC             float64
	ApparentTemperatureC     float64
	PrecipitationProbability float64
	WeatherCode              int
	WindKmh                  float64
	UVIndex                  float64
}

// Config wires runtime settings for the weather domain.
type Config struct {
	MinQueryLength int
	CacheTTL       time.Duration
}
