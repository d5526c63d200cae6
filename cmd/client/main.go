package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/weatherwear/internal/client/api"
	"github.com/yanqian/weatherwear/internal/client/cli"
	"github.com/yanqian/weatherwear/internal/client/orchestrator"
	"github.com/yanqian/weatherwear/internal/infra/config"
	"github.com/yanqian/weatherwear/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.NewCLI(os.Stderr)
	cfg := config.LoadClient()
	log.Info("client starting", "apiBaseUrl", cfg.APIBaseURL)

	store := orchestrator.NewStore()
	ctrl := orchestrator.NewController(api.NewClient(cfg.APIBaseURL, nil), store, log)
	session := cli.NewSession(store, ctrl, os.Stdout, log)

	session.Show()
	session.Printf("Type help for commands.\n")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Error("read input failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			quit, err := session.Execute(ctx, line)
			if err != nil {
				session.Printf("error: %v\n", err)
			}
			if quit {
				return
			}
		}
	}
}
