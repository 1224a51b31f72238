package router

import (
	"github.com/labstack/echo/v4"

	"lapakchat/internal/adapter/api/handler"
	"lapakchat/internal/adapter/api/middleware"
)

// SetupConversationRouter sets up all conversation routes (excluding WebSocket).
func SetupConversationRouter(e *echo.Echo, conversationHandler *handler.ConversationHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/conversations")
	group.Use(authMiddleware.Authenticate)

	group.POST("", conversationHandler.StartConversation)
	group.GET("", conversationHandler.ListConversations)
	group.GET("/:id", conversationHandler.GetConversation)
	group.PUT("/:id/read", conversationHandler.MarkRead)
	group.PUT("/:id/archive", conversationHandler.Archive)
	group.PUT("/:id/block", conversationHandler.Block)
	group.POST("/:id/rate", conversationHandler.Rate)
	group.GET("/:id/export", conversationHandler.Export)
	group.POST("/:id/deletion-request", conversationHandler.RequestDeletion)

	group.POST("/:id/messages", conversationHandler.SendMessage)
	group.DELETE("/:id/messages/:messageId", conversationHandler.DeleteMessage)

	searchGroup := e.Group("/v1/messages")
	searchGroup.Use(authMiddleware.Authenticate)
	searchGroup.GET("/search", conversationHandler.SearchMessages)
}
