package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ndarenkov/pollwise/internal/handlers"
	"github.com/ndarenkov/pollwise/internal/middleware"
	"github.com/ndarenkov/pollwise/internal/routes"
)

type App struct {
	engine *gin.Engine
	server *http.Server
	port   int
}

// NewApp initializes the gin HTTP server and registers the routes.
func NewApp(
	port int,
	authHandler *handlers.AuthHandler,
	pollsHandler *handlers.PollsHandler,
	authMiddleware *middleware.AuthMiddleware,
) *App {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		routes.RegisterAuthRoutes(authGroup, authHandler, authMiddleware.Require())

		// Public reads pass through Identify so the listing can surface the
		// current user's vote when a token is present.
		publicGroup := api.Group("", authMiddleware.Identify())
		routes.RegisterPublicRoutes(publicGroup, pollsHandler)

		privateGroup := api.Group("", authMiddleware.Require())
		routes.RegisterPrivateRoutes(privateGroup, pollsHandler)
	}

	// Healthcheck
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return &App{
		engine: r,
		server: httpServer,
		port:   port,
	}
}

// Run starts the HTTP server.
func (a *App) Run() error {
	return a.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (a *App) Stop(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *App) Engine() *gin.Engine {
	return a.engine
}
