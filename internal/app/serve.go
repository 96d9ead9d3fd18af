package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/handlers"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP API on a.Config.HTTPAddr until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	if a.Config.Environment != config.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.NewNodeHandler(a.Service), a.Logger)
	srv := &http.Server{Addr: a.Config.HTTPAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("shutdown failed", slog.String("error", err.Error()))
		}
	}()

	a.Logger.Info("server listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
