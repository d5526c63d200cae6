package view

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/yanqian/weatherwear/internal/client/orchestrator"
	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

const noAccessories = "No accessories needed"

// Metric is one label/value pair of the weather panel.
type Metric struct {
	Label string
	Value string
}

// WeatherMetrics lists the weather panel in display order.
func WeatherMetrics(w outfit.WeatherSnapshot) []Metric {
	return []Metric{
		{Label: "Location", Value: w.Location},
		{Label: "Temperature", Value: formatNumber(w.TemperatureF) + "F"},
		{Label: "Feels Like", Value: formatNumber(w.FeelsLikeF) + "F"},
		{Label: "Condition", Value: w.Condition},
		{Label: "Precipitation", Value: strconv.Itoa(w.PrecipitationProbability) + "% chance"},
		{Label: "Wind", Value: formatNumber(w.WindMph) + " mph"},
		{Label: "UV Index", Value: formatNumber(w.UVIndex)},
	}
}

// SourceLabel is the badge shown next to a recommendation.
func SourceLabel(source outfit.Source) string {
	if source.IsLLM() {
		return "LLM enhanced"
	}
	return "Rule based"
}

// AccessoriesText joins accessories or returns the empty placeholder.
func AccessoriesText(accessories []string) string {
	if len(accessories) == 0 {
		return noAccessories
	}
	return strings.Join(accessories, ", ")
}

func WeatherAction(state orchestrator.State) string {
	if state.LoadingWeather {
		return "Loading weather..."
	}
	return "Fetch Weather"
}

func RecommendAction(state orchestrator.State) string {
	switch {
	case state.LoadingRecommendation:
		return "Generating..."
	case !state.CanRecommend():
		return "Get Outfit Recommendation (fetch weather first)"
	default:
		return "Get Outfit Recommendation"
	}
}

// Render writes the full screen: inputs, actions, error, weather and outfit.
func Render(out io.Writer, query string, prefs outfit.Preferences, state orchestrator.State) error {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)

	fmt.Fprintln(&b, "== Weather Wear ==")
	fmt.Fprintf(tw, "Location\t%s\n", query)
	fmt.Fprintf(tw, "Style\t%s\n", prefs.Style)
	fmt.Fprintf(tw, "Cold Sensitivity\t%s\n", prefs.ColdSensitivity)
	fmt.Fprintf(tw, "Activity Level\t%s\n", prefs.ActivityLevel)
	fmt.Fprintf(tw, "Carry umbrella\t%s\n", onOff(prefs.CarryUmbrella))
	tw.Flush()
	fmt.Fprintf(&b, "[%s]  [%s]\n", WeatherAction(state), RecommendAction(state))

	if state.Error != "" {
		fmt.Fprintf(&b, "! %s\n", state.Error)
	}

	if state.Weather != nil {
		fmt.Fprintln(&b, "\n-- Current Weather --")
		for _, m := range WeatherMetrics(*state.Weather) {
			fmt.Fprintf(tw, "%s\t%s\n", m.Label, m.Value)
		}
		tw.Flush()
	}

	if rec := state.Recommendation; rec != nil {
		fmt.Fprintf(&b, "\n-- Outfit Recommendation (%s) --\n", SourceLabel(rec.Source))
		fmt.Fprintf(tw, "Top\t%s\n", rec.Top)
		fmt.Fprintf(tw, "Bottom\t%s\n", rec.Bottom)
		fmt.Fprintf(tw, "Outerwear\t%s\n", rec.Outerwear)
		fmt.Fprintf(tw, "Footwear\t%s\n", rec.Footwear)
		fmt.Fprintf(tw, "Confidence\t%s\n", rec.Confidence)
		fmt.Fprintf(tw, "Accessories\t%s\n", AccessoriesText(rec.Accessories))
		tw.Flush()
		fmt.Fprintln(&b, rec.Rationale)
	}

	_, err := io.WriteString(out, b.String())
	return err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
