package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yanqian/weatherwear/internal/client/api"
	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

var (
	// ErrEmptyQuery is returned when FetchWeather is called without a location.
	ErrEmptyQuery = errors.New("location query is empty")
	// ErrNoWeather is returned when FetchRecommendation is called before any weather is loaded.
	ErrNoWeather = errors.New("no weather loaded")
	// ErrSuperseded is returned when a recommendation finished after the
	// weather it was computed from had been replaced; its result is dropped.
	ErrSuperseded = errors.New("recommendation superseded by newer weather")
)

const emptyQueryMessage = "Please enter a location."

// Transport performs the two remote calls.
type Transport interface {
	Weather(ctx context.Context, query string) (outfit.WeatherSnapshot, error)
	Recommend(ctx context.Context, weather outfit.WeatherSnapshot, prefs outfit.Preferences) (outfit.Recommendation, error)
}

// Controller owns the weather and recommendation slots, the shared error
// message and the loading flags. State changes only through FetchWeather and
// FetchRecommendation.
type Controller struct {
	transport Transport
	store     *Store
	logger    *slog.Logger

	notifyMu   sync.Mutex
	delivering bool
	dirty      bool

	mu             sync.Mutex
	weather        *outfit.WeatherSnapshot
	recommendation *outfit.Recommendation
	errMsg         string
	weatherTasks   int
	recTasks       int
	weatherPhase   Phase
	recPhase       Phase
	// generation changes whenever the weather a recommendation would be based
	// on changes: at the start and at the end of every weather fetch.
	generation uint64
	listeners  map[int]func(State)
	nextID     int
}

// NewController builds a controller reading preferences from store.
func NewController(transport Transport, store *Store, logger *slog.Logger) *Controller {
	return &Controller{
		transport:    transport,
		store:        store,
		logger:       logger.With("component", "orchestrator.controller"),
		weatherPhase: PhaseIdle,
		recPhase:     PhaseIdle,
		listeners:    make(map[int]func(State)),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// CanRecommend reports whether a weather snapshot is present.
func (c *Controller) CanRecommend() bool {
	return c.State().CanRecommend()
}

// Subscribe registers fn to receive the state after transitions. States that
// change while fn runs are coalesced into one delivery of the newest state.
// fn may call back into the controller. The returned func removes the
// subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// FetchWeather looks up weather for query. The previous recommendation and
// error are cleared before the request is issued. It blocks until the result
// has been applied.
func (c *Controller) FetchWeather(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		c.transition(func() {
			c.errMsg = emptyQueryMessage
		})
		return ErrEmptyQuery
	}

	c.transition(func() {
		c.errMsg = ""
		c.recommendation = nil
		c.recPhase = PhaseIdle
		c.weatherTasks++
		c.generation++
	})

	snapshot, err := c.transport.Weather(ctx, query)

	c.transition(func() {
		c.weatherTasks--
		c.generation++
		// Any recommendation stored while this fetch was in flight came from
		// the weather being replaced.
		c.recommendation = nil
		c.recPhase = PhaseIdle
		if err != nil {
			c.weather = nil
			c.errMsg = describeFailure("Weather", err)
			c.weatherPhase = PhaseFailed
			return
		}
		c.weather = &snapshot
		c.weatherPhase = PhaseSucceeded
	})

	if err != nil {
		c.logger.Warn("weather fetch failed", "query", query, "error", err)
		return err
	}
	c.logger.Debug("weather fetched", "query", query, "location", snapshot.Location)
	return nil
}

// FetchRecommendation requests an outfit for the current weather and
// preferences. Without weather it does nothing and returns ErrNoWeather.
func (c *Controller) FetchRecommendation(ctx context.Context) error {
	c.mu.Lock()
	if c.weather == nil {
		c.mu.Unlock()
		return ErrNoWeather
	}
	weather := *c.weather
	prefs := c.store.Preferences()
	issuedAt := c.generation
	c.errMsg = ""
	c.recTasks++
	c.mu.Unlock()
	c.publish()

	rec, err := c.transport.Recommend(ctx, weather, prefs)

	superseded := false
	c.transition(func() {
		c.recTasks--
		if issuedAt != c.generation {
			superseded = true
			return
		}
		if err != nil {
			c.recommendation = nil
			c.errMsg = describeFailure("Recommendation", err)
			c.recPhase = PhaseFailed
			return
		}
		c.recommendation = &rec
		c.recPhase = PhaseSucceeded
	})

	switch {
	case superseded:
		c.logger.Info("dropping recommendation for replaced weather", "location", weather.Location, "error", err)
		return ErrSuperseded
	case err != nil:
		c.logger.Warn("recommendation fetch failed", "location", weather.Location, "error", err)
		return err
	}
	return nil
}

// StartFetchWeather runs FetchWeather in its own goroutine. The returned
// channel yields the outcome once the result has been applied.
func (c *Controller) StartFetchWeather(ctx context.Context, query string) <-chan error {
	return c.spawn(func() error { return c.FetchWeather(ctx, query) })
}

// StartFetchRecommendation runs FetchRecommendation in its own goroutine.
func (c *Controller) StartFetchRecommendation(ctx context.Context) <-chan error {
	return c.spawn(func() error { return c.FetchRecommendation(ctx) })
}

func (c *Controller) spawn(task func() error) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- task()
	}()
	return done
}

// transition applies mutate atomically and then notifies subscribers.
func (c *Controller) transition(mutate func()) {
	c.mu.Lock()
	mutate()
	c.mu.Unlock()
	c.publish()
}

// publish delivers the latest state to every subscriber. Only one goroutine
// delivers at a time, so a subscriber never sees an older state after a newer
// one. A publish that arrives during delivery, including one triggered by a
// subscriber calling back into the controller, marks the state dirty and the
// active deliverer sends the newest state once more.
func (c *Controller) publish() {
	c.notifyMu.Lock()
	c.dirty = true
	if c.delivering {
		c.notifyMu.Unlock()
		return
	}
	c.delivering = true
	for c.dirty {
		c.dirty = false
		c.notifyMu.Unlock()
		c.deliver()
		c.notifyMu.Lock()
	}
	c.delivering = false
	c.notifyMu.Unlock()
}

func (c *Controller) deliver() {
	c.mu.Lock()
	state := c.stateLocked()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (c *Controller) stateLocked() State {
	state := State{
		Error:                 c.errMsg,
		LoadingWeather:        c.weatherTasks > 0,
		LoadingRecommendation: c.recTasks > 0,
		WeatherPhase:          c.weatherPhase,
		RecommendationPhase:   c.recPhase,
	}
	if state.LoadingWeather {
		state.WeatherPhase = PhaseLoading
	}
	if state.LoadingRecommendation {
		state.RecommendationPhase = PhaseLoading
	}
	if c.weather != nil {
		w := *c.weather
		state.Weather = &w
	}
	if c.recommendation != nil {
		r := *c.recommendation
		r.Accessories = append([]string{}, c.recommendation.Accessories...)
		state.Recommendation = &r
	}
	return state
}

// describeFailure builds the user visible message, including the HTTP
// status when the server answered.
func describeFailure(operation string, err error) string {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("%s request failed (%d)", operation, statusErr.StatusCode)
	}
	return fmt.Sprintf("%s request failed: %v", operation, err)
}
