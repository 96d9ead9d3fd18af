package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ammiranda/td/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(ctx)
	if err != nil {
		slog.Error("failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close(context.Background())

	if err := a.Serve(ctx); err != nil {
		a.Logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
