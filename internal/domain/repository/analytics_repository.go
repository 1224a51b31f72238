package repository

import (
	"context"
	"time"

	"lapakchat/internal/domain/entity"
)

type AnalyticsRepository interface {
	// Get returns the bucket for (storeID, period, date), or NOT_FOUND.
	// date must already be normalized to the period start.
	Get(ctx context.Context, storeID, period string, date time.Time) (*entity.AnalyticsBucket, error)
	Create(ctx context.Context, bucket *entity.AnalyticsBucket) error
	Update(ctx context.Context, bucket *entity.AnalyticsBucket) error
}
