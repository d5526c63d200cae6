package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
	"github.com/yanqian/weatherwear/internal/infra/config"
	"github.com/yanqian/weatherwear/internal/infra/llm/chatgpt"
)

const modelCheckTimeout = 15 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	server    *http.Server
	outfitSvc outfit.Service
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, outfitSvc outfit.Service) *App {
	return &App{cfg: cfg, logger: logger.With("component", "bootstrap"), server: server, outfitSvc: outfitSvc}
}

// Run validates the LLM configuration, starts the HTTP server and blocks
// until shutdown. A failed model check only downgrades to rule based output.
func (a *App) Run(ctx context.Context) error {
	a.checkModel(ctx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) checkModel(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	ok, message := a.outfitSvc.CheckModel(checkCtx)
	attrs := []any{"model", a.cfg.LLM.Model}
	if a.cfg.LLMEnabled() {
		attrs = append(attrs, "apiKey", chatgpt.MaskKey(a.cfg.LLM.APIKey))
	}
	if ok {
		a.logger.Info(message, attrs...)
		return
	}
	a.logger.Warn(message, attrs...)
}
