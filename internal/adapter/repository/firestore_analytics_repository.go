package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/pkg/errors"
)

type firestoreAnalyticsRepository struct {
	client *firestore.Client
}

func NewFirestoreAnalyticsRepository(client *firestore.Client) repository.AnalyticsRepository {
	return &firestoreAnalyticsRepository{
		client: client,
	}
}

// bucketDocID makes the (store, period, date) key addressable as a single
// document id so get-or-create needs no query.
func bucketDocID(storeID, period string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", storeID, period, date.Format("2006-01-02"))
}

func (r *firestoreAnalyticsRepository) Get(ctx context.Context, storeID, period string, date time.Time) (*entity.AnalyticsBucket, error) {
	doc, err := r.client.Collection("store_analytics").Doc(bucketDocID(storeID, period, date)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Analytics bucket", nil)
		}
		return nil, errors.Internal("Failed to get analytics bucket", err)
	}

	var bucket entity.AnalyticsBucket
	if err := doc.DataTo(&bucket); err != nil {
		return nil, errors.Internal("Failed to parse analytics bucket data", err)
	}

	return &bucket, nil
}

func (r *firestoreAnalyticsRepository) Create(ctx context.Context, bucket *entity.AnalyticsBucket) error {
	if bucket.ID == "" {
		bucket.ID = bucketDocID(bucket.StoreID, bucket.Period, bucket.Date)
	}

	now := time.Now()
	bucket.CreatedAt = now
	bucket.UpdatedAt = now

	_, err := r.client.Collection("store_analytics").Doc(bucket.ID).Set(ctx, bucket)
	if err != nil {
		return errors.Internal("Failed to create analytics bucket", err)
	}

	return nil
}

func (r *firestoreAnalyticsRepository) Update(ctx context.Context, bucket *entity.AnalyticsBucket) error {
	bucket.UpdatedAt = time.Now()

	_, err := r.client.Collection("store_analytics").Doc(bucket.ID).Set(ctx, bucket)
	if err != nil {
		return errors.Internal("Failed to update analytics bucket", err)
	}

	return nil
}
