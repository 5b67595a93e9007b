package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ndarenkov/pollwise/internal/handlers"
)

func RegisterAuthRoutes(rg *gin.RouterGroup, handler *handlers.AuthHandler, require gin.HandlerFunc) {
	{
		rg.POST("/register", handler.Register)
		rg.POST("/login", handler.Login)
		rg.POST("/refresh", handler.Refresh)
		rg.POST("/logout", handler.Logout)

		rg.GET("/me", require, handler.Me)
	}
}

func RegisterPublicRoutes(rg *gin.RouterGroup, handler *handlers.PollsHandler) {
	{
		rg.GET("/polls", handler.ListPolls)
		rg.GET("/polls/:id", handler.GetPoll)
	}
}

func RegisterPrivateRoutes(rg *gin.RouterGroup, handler *handlers.PollsHandler) {
	{
		rg.POST("/polls", handler.CreatePoll)
		rg.POST("/votes", handler.SubmitVote)
	}
}
