package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/weatherwear/internal/client/api"
	"github.com/yanqian/weatherwear/internal/client/orchestrator"
	"github.com/yanqian/weatherwear/internal/domain/outfit"
)

func TestSessionPreferenceCommands(t *testing.T) {
	session, store, _, out := newSession(t, http.NotFoundHandler())

	for _, line := range []string{
		"location New York, NY",
		"style business casual",
		"cold HIGH",
		"activity low",
		"umbrella off",
	} {
		quit, err := session.Execute(context.Background(), line)
		require.NoError(t, err, line)
		require.False(t, quit)
	}

	require.Equal(t, "New York, NY", store.Query())
	require.Equal(t, outfit.Preferences{
		ColdSensitivity: outfit.LevelHigh,
		Style:           outfit.StyleBusinessCasual,
		ActivityLevel:   outfit.LevelLow,
		CarryUmbrella:   false,
	}, store.Preferences())
	require.Contains(t, out.String(), "New York, NY")
}

func TestSessionRejectsInvalidInput(t *testing.T) {
	session, store, _, _ := newSession(t, http.NotFoundHandler())

	_, err := session.Execute(context.Background(), "style formal")
	require.Error(t, err)
	_, err = session.Execute(context.Background(), "umbrella maybe")
	require.Error(t, err)
	_, err = session.Execute(context.Background(), "dance")
	require.ErrorIs(t, err, ErrUnknownCommand)

	require.Equal(t, outfit.DefaultPreferences(), store.Preferences())
}

func TestSessionQuitAndBlankLine(t *testing.T) {
	session, _, _, _ := newSession(t, http.NotFoundHandler())

	quit, err := session.Execute(context.Background(), "   ")
	require.NoError(t, err)
	require.False(t, quit)

	quit, err = session.Execute(context.Background(), "quit")
	require.NoError(t, err)
	require.True(t, quit)
}

func TestSessionRecommendRequiresWeather(t *testing.T) {
	session, _, _, out := newSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}))

	_, err := session.Execute(context.Background(), "recommend")
	require.NoError(t, err)
	require.Contains(t, out.String(), "Fetch weather first.")
}

func TestSessionWeatherThenRecommend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/weather", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"location":"Atlanta, Georgia, United States","temperature_f":72,"feels_like_f":70,"condition":"Sunny","precipitation_probability":5,"wind_mph":8,"uv_index":6}`))
	})
	mux.HandleFunc("/api/recommend", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"top":"T-shirt","bottom":"Shorts","outerwear":"None","footwear":"Sneakers","accessories":["Sunglasses"],"confidence":0.8,"rationale":"Warm and dry","source":"llm"}`))
	})
	session, _, ctrl, out := newSession(t, mux)

	_, err := session.Execute(context.Background(), "weather")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ctrl.CanRecommend() && !ctrl.State().LoadingWeather }, 2*time.Second, 5*time.Millisecond)

	_, err = session.Execute(context.Background(), "recommend")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ctrl.State().Recommendation != nil }, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "LLM enhanced") }, 2*time.Second, 5*time.Millisecond)
	text := out.String()
	require.Contains(t, text, "Atlanta, Georgia, United States")
	require.Contains(t, text, "Sunglasses")
}

func TestSessionPrintfWaitsForRedraw(t *testing.T) {
	out := &blockingWriter{entered: make(chan struct{}), release: make(chan struct{})}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := orchestrator.NewStore()
	ctrl := orchestrator.NewController(api.NewClient("http://127.0.0.1:0", nil), store, logger)
	session := NewSession(store, ctrl, out, logger)

	go session.Show()
	<-out.entered

	printed := make(chan struct{})
	go func() {
		session.Printf("error: %v\n", ErrUnknownCommand)
		close(printed)
	}()

	select {
	case <-printed:
		t.Fatal("Printf wrote while a redraw was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(out.release)
	<-printed
	require.True(t, strings.HasSuffix(out.String(), "error: unknown command\n"))
}

func TestSessionWeatherFailureShowsStatus(t *testing.T) {
	session, _, ctrl, out := newSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := session.Execute(context.Background(), "weather")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return ctrl.State().Error != "" }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(out.String()), []byte("Weather request failed (502)"))
	}, 2*time.Second, 5*time.Millisecond)
}

func newSession(t *testing.T, handler http.Handler) (*Session, *orchestrator.Store, *orchestrator.Controller, *syncBuffer) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := orchestrator.NewStore()
	ctrl := orchestrator.NewController(api.NewClient(server.URL, server.Client()), store, logger)
	out := &syncBuffer{}
	return NewSession(store, ctrl, out, logger), store, ctrl, out
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// blockingWriter holds the first write until release is closed.
type blockingWriter struct {
	syncBuffer
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	first := false
	w.once.Do(func() { first = true })
	if first {
		close(w.entered)
		<-w.release
	}
	return w.syncBuffer.Write(p)
}
