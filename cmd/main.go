package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vitormoschetta/sentiment-chat/internal/config"
	"github.com/vitormoschetta/sentiment-chat/internal/handler"
	"github.com/vitormoschetta/sentiment-chat/internal/logging"
	"github.com/vitormoschetta/sentiment-chat/internal/metrics"
	"github.com/vitormoschetta/sentiment-chat/internal/server"
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, metrics.New())
	if err != nil {
		slog.Error("Failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	h := handler.NewHandler(srv)

	srv.SetupRouter(h.HandleRoot, h.HandleHealth, h.HandleChat, h.HandlePreflight, handler.NewMCPHandler(srv.Service))

	if err := srv.Start(ctx); err != nil {
		slog.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
