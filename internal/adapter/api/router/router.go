package router

import (
	"github.com/labstack/echo/v4"

	"lapakchat/internal/adapter/api/handler"
	"lapakchat/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	conversationHandler *handler.ConversationHandler,
	analyticsHandler *handler.AnalyticsHandler,
	wsHandler *handler.WebSocketHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	SetupConversationRouter(e, conversationHandler, authMiddleware)
	SetupAnalyticsRouter(e, analyticsHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
