package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"lapakchat/internal/usecase"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/response"
)

type AnalyticsHandler struct {
	analyticsUseCase *usecase.AnalyticsUseCase
}

func NewAnalyticsHandler(analyticsUseCase *usecase.AnalyticsUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsUseCase: analyticsUseCase,
	}
}

// GetStoreAnalytics returns one aggregate bucket for the owner's store.
// date defaults to today; period defaults to daily.
func (h *AnalyticsHandler) GetStoreAnalytics(c echo.Context) error {
	userID := c.Get("uid").(string)

	var date time.Time
	if dateStr := c.QueryParam("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return response.Error(c, errors.BadRequest("Date must be formatted as YYYY-MM-DD", err))
		}
		date = parsed
	}

	bucket, err := h.analyticsUseCase.GetStoreAnalytics(c.Request().Context(), c.Param("id"), userID, c.QueryParam("period"), date)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, bucket)
}
