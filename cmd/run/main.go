package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndarenkov/pollwise/internal/app"
	"github.com/ndarenkov/pollwise/internal/config"
	"github.com/ndarenkov/pollwise/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/local.yaml", "path to the config file")
	flag.Parse()

	cfg := config.Load(configPath)

	log := utils.New(cfg.Env)
	log.Info("starting pollwise", slog.String("env", cfg.Env), slog.Int("port", cfg.HTTP.Port))

	application := app.NewApp(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := application.HTTPServer.Run(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("HTTP server closed gracefully")
			} else {
				log.Error("failed to run HTTP server", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
	}()

	<-ctx.Done()

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := application.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("application stopped")
}
