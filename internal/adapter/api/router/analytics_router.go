package router

import (
	"github.com/labstack/echo/v4"

	"lapakchat/internal/adapter/api/handler"
	"lapakchat/internal/adapter/api/middleware"
)

func SetupAnalyticsRouter(e *echo.Echo, analyticsHandler *handler.AnalyticsHandler, authMiddleware *middleware.AuthMiddleware) {
	group := e.Group("/v1/stores")
	group.Use(authMiddleware.Authenticate)

	group.GET("/:id/analytics", analyticsHandler.GetStoreAnalytics)
}
