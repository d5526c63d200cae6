package outfit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Level is a three step scale used for cold sensitivity and activity.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Style selects the clothing register of the recommendation.
type Style string

const (
	StyleCasual         Style = "casual"
	StyleAthleisure     Style = "athleisure"
	StyleBusinessCasual Style = "business_casual"
)

// Source tags whether a recommendation came from the rule engine or the LLM.
type Source string

const (
	SourceRules Source = "rules"
	SourceLLM   Source = "llm"
)

// IsLLM reports whether the recommendation was LLM augmented.
func (s Source) IsLLM() bool {
	return s == SourceLLM
}

// Valid accepts both the "rules" tag the service emits and the singular "rule".
func (s Source) Valid() bool {
	switch s {
	case SourceRules, SourceLLM, "rule":
		return true
	default:
		return false
	}
}

// ParseLevel converts user input into a Level.
func ParseLevel(raw string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(raw))); l {
	case LevelLow, LevelMedium, LevelHigh:
		return l, nil
	default:
		return "", errors.New("level must be one of low, medium, high")
	}
}

// ParseStyle converts user input into a Style.
func ParseStyle(raw string) (Style, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	switch s := Style(normalized); s {
	case StyleCasual, StyleAthleisure, StyleBusinessCasual:
		return s, nil
	default:
		return "", errors.New("style must be one of casual, athleisure, business_casual")
	}
}

// Preferences are the user chosen parameters influencing outfit selection.
type Preferences struct {
	ColdSensitivity Level `json:"cold_sensitivity" binding:"oneof=low medium high"`
	Style           Style `json:"style" binding:"oneof=casual athleisure business_casual"`
	ActivityLevel   Level `json:"activity_level" binding:"oneof=low medium high"`
	CarryUmbrella   bool  `json:"carry_umbrella"`
}

// DefaultPreferences returns the preference set used at startup.
func DefaultPreferences() Preferences {
	return Preferences{
		ColdSensitivity: LevelMedium,
		Style:           StyleCasual,
		ActivityLevel:   LevelMedium,
		CarryUmbrella:   true,
	}
}

// WeatherSnapshot is the current weather for a resolved location.
type WeatherSnapshot struct {
	Location                 string  `json:"location" binding:"required"`
	TemperatureF             float64 `json:"temperature_f"`
	FeelsLikeF               float64 `json:"feels_like_f"`
	Condition                string  `json:"condition"`
	PrecipitationProbability int     `json:"precipitation_probability" binding:"min=0,max=100"`
	WindMph                  float64 `json:"wind_mph"`
	UVIndex                  float64 `json:"uv_index"`
}

// Recommendation is the outfit suggestion returned to clients.
type Recommendation struct {
	Top         string     `json:"top"`
	Bottom      string     `json:"bottom"`
	Outerwear   string     `json:"outerwear"`
	Footwear    string     `json:"footwear"`
	Accessories []string   `json:"accessories"`
	Confidence  Confidence `json:"confidence"`
	Rationale   string     `json:"rationale"`
	Source      Source     `json:"source"`
}

// Request is the payload accepted by the recommend endpoint.
type Request struct {
	Weather     WeatherSnapshot `json:"weather"`
	Preferences Preferences     `json:"preferences"`
}

// NewRequest builds a request with default preferences so that a partial
// preferences object decodes on top of them.
func NewRequest() Request {
	return Request{Preferences: DefaultPreferences()}
}

// Confidence keeps the JSON literal of a confidence value. Clients display it
// verbatim; the service emits numbers.
type Confidence string

// NumericConfidence formats a float the way JSON encoders do.
func NumericConfidence(v float64) Confidence {
	return Confidence(strconv.FormatFloat(v, 'f', -1, 64))
}

// Float64 returns the numeric value when the literal is a number or a
// string holding one.
func (c Confidence) Float64() (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.String()), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// String renders a string literal unquoted and anything else as written.
func (c Confidence) String() string {
	if strings.HasPrefix(string(c), `"`) {
		var s string
		if err := json.Unmarshal([]byte(c), &s); err == nil {
			return s
		}
	}
	return string(c)
}

// MarshalJSON implements json.Marshaler.
func (c Confidence) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	if !json.Valid([]byte(c)) {
		return json.Marshal(string(c))
	}
	return []byte(c), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*c = ""
		return nil
	}
	switch {
	case len(trimmed) > 0 && trimmed[0] == '"':
	case len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')):
	default:
		return errors.New("confidence must be a string or a number")
	}
	*c = Confidence(trimmed)
	return nil
}

// LogEntry records a recommendation that was served.
type LogEntry struct {
	ID          uuid.UUID   `json:"id"`
	Location    string      `json:"location"`
	Preferences Preferences `json:"preferences"`
	Source      Source      `json:"source"`
	Confidence  Confidence  `json:"confidence"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Config wires runtime dependencies for the recommendation domain.
type Config struct {
	Model       string
	Temperature float32
	Prompt      string
	LLMEnabled  bool
	LogLimit    int
}
