package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/yanqian/weatherwear/internal/client/orchestrator"
	"github.com/yanqian/weatherwear/internal/client/view"
	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

// ErrUnknownCommand is returned for input that matches no command.
var ErrUnknownCommand = errors.New("unknown command")

const helpText = `Commands:
  location <text>                           set the location query
  style <casual|athleisure|business_casual> set the clothing style
  cold <low|medium|high>                    set cold sensitivity
  activity <low|medium|high>                set activity level
  umbrella <on|off>                         carry an umbrella when needed
  weather                                   fetch weather for the location
  recommend                                 request an outfit for the loaded weather
  show                                      redraw the screen
  help                                      show this help
  quit                                      exit
`

// Session connects terminal input to the store and controller and redraws
// the screen on every change.
type Session struct {
	store  *orchestrator.Store
	ctrl   *orchestrator.Controller
	logger *slog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// NewSession subscribes to store and controller changes.
func NewSession(store *orchestrator.Store, ctrl *orchestrator.Controller, out io.Writer, logger *slog.Logger) *Session {
	s := &Session{
		store:  store,
		ctrl:   ctrl,
		logger: logger.With("component", "cli.session"),
		out:    out,
	}
	store.OnChange(func() { s.render(ctrl.State()) })
	ctrl.Subscribe(s.render)
	return s
}

// Show redraws the screen with the current state.
func (s *Session) Show() {
	s.render(s.ctrl.State())
}

// Execute runs one line of input. It reports whether the session should end.
// weather and recommend start in the background and return immediately.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		s.write(helpText)
	case "show":
		s.Show()
	case "location":
		s.store.SetQuery(arg)
	case "style":
		style, err := outfit.ParseStyle(arg)
		if err != nil {
			return false, err
		}
		s.store.SetStyle(style)
	case "cold":
		level, err := outfit.ParseLevel(arg)
		if err != nil {
			return false, err
		}
		s.store.SetColdSensitivity(level)
	case "activity":
		level, err := outfit.ParseLevel(arg)
		if err != nil {
			return false, err
		}
		s.store.SetActivityLevel(level)
	case "umbrella":
		carry, err := parseOnOff(arg)
		if err != nil {
			return false, err
		}
		s.store.SetCarryUmbrella(carry)
	case "weather":
		s.watch(s.ctrl.StartFetchWeather(ctx, s.store.Query()), "weather")
	case "recommend":
		if !s.ctrl.CanRecommend() {
			s.write("Fetch weather first.\n")
			return false, nil
		}
		s.watch(s.ctrl.StartFetchRecommendation(ctx), "recommend")
	default:
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	return false, nil
}

// watch logs the outcome of a background task. Failures are already on
// screen through the state's error message.
func (s *Session) watch(done <-chan error, task string) {
	go func() {
		if err := <-done; err != nil {
			s.logger.Debug("task finished with error", "task", task, "error", err)
		}
	}()
}

func (s *Session) render(state orchestrator.State) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if err := view.Render(s.out, s.store.Query(), s.store.Preferences(), state); err != nil {
		s.logger.Error("render failed", "error", err)
	}
}

// Printf writes a message without interleaving with screen redraws.
func (s *Session) Printf(format string, args ...any) {
	s.write(fmt.Sprintf(format, args...))
}

func (s *Session) write(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := io.WriteString(s.out, text); err != nil {
		s.logger.Error("write failed", "error", err)
	}
}

func parseOnOff(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes", "true":
		return true, nil
	case "off", "no", "false":
		return false, nil
	default:
		return false, errors.New("umbrella must be on or off")
	}
}
