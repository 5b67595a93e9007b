package app

import (
	"context"
	"log/slog"

	"github.com/ndarenkov/pollwise/internal/app/http"
	"github.com/ndarenkov/pollwise/internal/config"
	"github.com/ndarenkov/pollwise/internal/handlers"
	"github.com/ndarenkov/pollwise/internal/middleware"
	"github.com/ndarenkov/pollwise/internal/services/auth"
	"github.com/ndarenkov/pollwise/internal/services/polls"
	"github.com/ndarenkov/pollwise/internal/storage/postgres"
	"github.com/ndarenkov/pollwise/internal/storage/redisstore"
)

type App struct {
	HTTPServer *http.App
	Polls      *polls.Polls
	Auth       *auth.Auth
	storage    *postgres.Storage
}

func NewApp(log *slog.Logger, cfg *config.Config) *App {
	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		panic(err)
	}

	redisClient, err := redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		panic(err)
	}

	tokenStore := redisstore.NewTokenStore(redisClient)
	listingCache := redisstore.NewListingCache(redisClient, cfg.ListingCacheTTL)

	authService := auth.NewAuth(
		log,
		storage,
		storage,
		tokenStore,
		cfg.TokenSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	pollsService := polls.NewPolls(log, storage, storage, listingCache)

	authHandler := handlers.NewAuthHandler(authService)
	pollsHandler := handlers.NewPollsHandler(pollsService)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	httpApp := http.NewApp(cfg.HTTP.Port, authHandler, pollsHandler, authMiddleware)

	return &App{
		HTTPServer: httpApp,
		Polls:      pollsService,
		Auth:       authService,
		storage:    storage,
	}
}

func (a *App) Stop(ctx context.Context) error {
	if err := a.HTTPServer.Stop(ctx); err != nil {
		return err
	}
	return a.storage.Close()
}
