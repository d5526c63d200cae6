package weather

import "math"

const unknownCondition = "Unknown conditions"

// WMO weather interpretation codes.
var conditionByCode = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Rain showers",
	81: "Rain showers",
	82: "Heavy rain showers",
	85: "Snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with hail",
	99: "Thunderstorm with hail",
}

// ConditionFor maps a WMO code to a human readable label.
func ConditionFor(code int) string {
	if label, ok := conditionByCode[code]; ok {
		return label
	}
	return unknownCondition
}

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

func kmhToMph(kmh float64) float64 {
	return kmh * 0.621371
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
