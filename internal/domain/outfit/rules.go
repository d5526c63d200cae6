package outfit

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

type band struct {
	below       float64
	top         string
	bottom      string
	outerwear   string
	footwear    string
	accessories []string
}

// Bands are ordered by feels-like upper bound; the last one catches the rest.
var feelsLikeBands = []band{
	{below: 32, top: "Thermal base layer + sweater", bottom: "Insulated pants", outerwear: "Heavy winter coat", footwear: "Waterproof boots", accessories: []string{"Gloves", "Beanie"}},
	{below: 45, top: "Long-sleeve shirt + sweater", bottom: "Jeans", outerwear: "Warm jacket", footwear: "Boots"},
	{below: 60, top: "Long-sleeve shirt", bottom: "Jeans or chinos", outerwear: "Light jacket", footwear: "Sneakers"},
	{below: 75, top: "Breathable shirt", bottom: "Chinos or jeans", outerwear: "Optional overshirt", footwear: "Sneakers"},
	{below: 88, top: "Lightweight T-shirt", bottom: "Shorts or light pants", outerwear: "No outerwear", footwear: "Breathable sneakers"},
	{below: math.Inf(1), top: "Moisture-wicking tee", bottom: "Shorts", outerwear: "No outerwear", footwear: "Ventilated shoes", accessories: []string{"Water bottle"}},
}

const (
	rainThreshold   = 50
	windThreshold   = 20.0
	uvThreshold     = 6.0
	baseConfidence  = 0.72
	minConfidence   = 0.4
	maxConfidence   = 0.95
	extremeBoost    = 0.08
	unknownPenalty  = 0.1
	coldExtremeF    = 35.0
	hotExtremeF     = 90.0
	businessCoatF   = 60.0
	athleisureWarmF = 75.0
	sensitiveColdF  = 70.0
	tolerantWarmF   = 55.0
)

// RuleBased derives a deterministic recommendation from weather and preferences.
func RuleBased(weather WeatherSnapshot, prefs Preferences) Recommendation {
	feelsLike := weather.FeelsLikeF
	precip := weather.PrecipitationProbability

	var chosen band
	for _, b := range feelsLikeBands {
		if feelsLike < b.below {
			chosen = b
			break
		}
	}
	top, bottom, outerwear, footwear := chosen.top, chosen.bottom, chosen.outerwear, chosen.footwear
	accessories := append([]string(nil), chosen.accessories...)

	if precip >= rainThreshold {
		if prefs.CarryUmbrella {
			accessories = append(accessories, "Umbrella")
		}
		outerwear = "Rain jacket"
		footwear = "Water-resistant shoes"
	}
	if weather.WindMph >= windThreshold {
		accessories = append(accessories, "Windproof layer")
	}
	if weather.UVIndex >= uvThreshold {
		accessories = append(accessories, "Sunglasses", "SPF 30+ sunscreen")
	}

	switch prefs.Style {
	case StyleBusinessCasual:
		top = "Collared shirt"
		if feelsLike < businessCoatF {
			outerwear = "Structured coat or blazer"
		}
		bottom = "Chinos or slacks"
		footwear = "Loafers or leather sneakers"
	case StyleAthleisure:
		top = "Performance top"
		if feelsLike < athleisureWarmF {
			bottom = "Joggers"
		} else {
			bottom = "Athletic shorts"
		}
		footwear = "Running shoes"
	}

	switch {
	case prefs.ColdSensitivity == LevelHigh && feelsLike < sensitiveColdF && strings.Contains(outerwear, "Light jacket"):
		outerwear = "Midweight jacket"
	case prefs.ColdSensitivity == LevelLow && feelsLike >= tolerantWarmF:
		outerwear = "No extra layer"
	}

	rationale := fmt.Sprintf(
		"Feels like %.1fF with %d%% precipitation chance. Condition: %s. Recommendation tuned for %s style.",
		feelsLike, precip, weather.Condition, prefs.Style,
	)

	return Recommendation{
		Top:         top,
		Bottom:      bottom,
		Outerwear:   outerwear,
		Footwear:    footwear,
		Accessories: sortedUnique(accessories),
		Confidence:  NumericConfidence(ruleConfidence(weather)),
		Rationale:   rationale,
		Source:      SourceRules,
	}
}

func ruleConfidence(weather WeatherSnapshot) float64 {
	confidence := baseConfidence
	if weather.PrecipitationProbability >= rainThreshold || weather.FeelsLikeF <= coldExtremeF || weather.FeelsLikeF >= hotExtremeF {
		confidence += extremeBoost
	}
	if strings.HasPrefix(strings.ToLower(weather.Condition), "unknown") {
		confidence -= unknownPenalty
	}
	confidence = math.Max(math.Min(confidence, maxConfidence), minConfidence)
	return math.Round(confidence*100) / 100
}

func sortedUnique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
