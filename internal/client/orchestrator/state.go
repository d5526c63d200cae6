package orchestrator

import "github.com/yanqian/weatherwear/internal/domain/outfit"

// Phase is the lifecycle position of one operation kind.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// State is an immutable view of the controller. Weather and Recommendation
// are nil when absent.
type State struct {
	Weather               *outfit.WeatherSnapshot
	Recommendation        *outfit.Recommendation
	Error                 string
	LoadingWeather        bool
	LoadingRecommendation bool
	WeatherPhase          Phase
	RecommendationPhase   Phase
}

// CanRecommend gates the recommendation action.
func (s State) CanRecommend() bool {
	return s.Weather != nil
}
