package usecase

import (
	"context"
	"sort"
	"time"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/internal/infrastructure/eventbus"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/logger"
)

// topListLimit bounds the per-bucket top lists.
const topListLimit = 10

// recordPeriods is every period a single event fans out to.
var recordPeriods = []string{
	entity.PeriodDaily,
	entity.PeriodWeekly,
	entity.PeriodMonthly,
	entity.PeriodYearly,
}

// AnalyticsUseCase maintains per-store aggregate buckets fed from the
// event bus. Every recording path is best effort: failures are logged
// and never reach the publisher.
type AnalyticsUseCase struct {
	analyticsRepo repository.AnalyticsRepository
	storeRepo     repository.StoreRepository
	locks         *lockTable
}

func NewAnalyticsUseCase(analyticsRepo repository.AnalyticsRepository, storeRepo repository.StoreRepository) *AnalyticsUseCase {
	return &AnalyticsUseCase{
		analyticsRepo: analyticsRepo,
		storeRepo:     storeRepo,
		locks:         newLockTable(),
	}
}

// SubscribeTo wires the aggregator to the bus. Handlers run on bus
// goroutines; bucket mutation is serialized by the per-bucket lock.
func (uc *AnalyticsUseCase) SubscribeTo(bus *eventbus.Bus) {
	bus.Subscribe([]string{"chat.*"}, func(event eventbus.Event) {
		ctx := context.Background()
		switch event.Type {
		case eventbus.TypeMessageSent:
			uc.recordMessage(ctx, event)
		case eventbus.TypeMessageBlocked:
			uc.recordBlocked(ctx, event)
		case eventbus.TypeRatingCreated:
			uc.recordRating(ctx, event)
		case eventbus.TypeInquiryCreated:
			uc.recordInquiry(ctx, event)
		}
	})
}

func (uc *AnalyticsUseCase) recordMessage(ctx context.Context, event eventbus.Event) {
	at := eventTime(event)
	uc.apply(ctx, event.StoreID, at, func(bucket *entity.AnalyticsBucket) {
		bucket.Metrics.TotalMessages++
		if truthy(event.Payload["has_file"]) {
			bucket.Metrics.FilesShared++
		}
		if truthy(event.Payload["has_receipt"]) {
			bucket.Metrics.ReceiptsSent++
		}
		if bucket.Period == entity.PeriodDaily {
			bucket.HourlyBreakdown[at.Hour()]++
		}

		if seconds, ok := floatValue(event.Payload["response_seconds"]); ok {
			bucket.Metrics.ResponseCount++
			bucket.Metrics.AvgResponseTime = rollMean(bucket.Metrics.AvgResponseTime, bucket.Metrics.ResponseCount, seconds)
		}

		if role, _ := event.Payload["sender_role"].(string); role == entity.RoleCustomer {
			customerID, _ := event.Payload["customer_id"].(string)
			if customerID != "" {
				bumpTop(&bucket.Metrics.TopCustomers, customerID, customerID)
			}
		}
	})
}

func (uc *AnalyticsUseCase) recordBlocked(ctx context.Context, event eventbus.Event) {
	categories, _ := event.Payload["categories"].([]string)
	uc.apply(ctx, event.StoreID, eventTime(event), func(bucket *entity.AnalyticsBucket) {
		bucket.Metrics.BlockedMessages++
		if bucket.Metrics.BlockedByCategory == nil {
			bucket.Metrics.BlockedByCategory = make(map[string]int)
		}
		for _, category := range categories {
			bucket.Metrics.BlockedByCategory[category]++
		}
	})
}

func (uc *AnalyticsUseCase) recordRating(ctx context.Context, event eventbus.Event) {
	rating, ok := floatValue(event.Payload["rating"])
	if !ok {
		return
	}
	uc.apply(ctx, event.StoreID, eventTime(event), func(bucket *entity.AnalyticsBucket) {
		bucket.Metrics.RatingCount++
		bucket.Metrics.AvgRating = rollMean(bucket.Metrics.AvgRating, bucket.Metrics.RatingCount, rating)
	})
}

func (uc *AnalyticsUseCase) recordInquiry(ctx context.Context, event eventbus.Event) {
	itemID, _ := event.Payload["item_id"].(string)
	itemName, _ := event.Payload["item_name"].(string)
	uc.apply(ctx, event.StoreID, eventTime(event), func(bucket *entity.AnalyticsBucket) {
		bucket.Metrics.TotalChats++
		if itemID != "" {
			bumpTop(&bucket.Metrics.TopInquiredItems, itemID, itemName)
		}
	})
}

// apply runs mutate against the bucket of every period, each under its
// own lock. One period failing never stops the others.
func (uc *AnalyticsUseCase) apply(ctx context.Context, storeID string, at time.Time, mutate func(bucket *entity.AnalyticsBucket)) {
	if storeID == "" {
		return
	}
	for _, period := range recordPeriods {
		if err := uc.applyPeriod(ctx, storeID, period, at, mutate); err != nil {
			logger.Warn("analytics: %s bucket for store %s not updated: %v", period, storeID, err)
		}
	}
}

func (uc *AnalyticsUseCase) applyPeriod(ctx context.Context, storeID, period string, at time.Time, mutate func(bucket *entity.AnalyticsBucket)) error {
	date := entity.NormalizeBucketDate(period, at)

	lock := uc.locks.get(storeID + "|" + period + "|" + date.Format("2006-01-02"))
	lock.Lock()
	defer lock.Unlock()

	bucket, err := uc.analyticsRepo.Get(ctx, storeID, period, date)
	switch {
	case err == nil:
	case errors.Is(err, "NOT_FOUND"):
		bucket = &entity.AnalyticsBucket{
			StoreID: storeID,
			Period:  period,
			Date:    date,
			Metrics: entity.BucketMetrics{
				BlockedByCategory: make(map[string]int),
			},
		}
		if err := uc.analyticsRepo.Create(ctx, bucket); err != nil {
			return err
		}
	default:
		return err
	}

	mutate(bucket)
	return uc.analyticsRepo.Update(ctx, bucket)
}

// GetStoreAnalytics returns the bucket for the requested period and date.
// Only the store owner may read; a never-written bucket comes back empty
// rather than as an error.
func (uc *AnalyticsUseCase) GetStoreAnalytics(ctx context.Context, storeID, callerID, period string, date time.Time) (*entity.AnalyticsBucket, error) {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, errors.NotFound("Store", err)
	}
	if store.OwnerID != callerID {
		return nil, errors.Forbidden("Only the store owner can view analytics", nil)
	}

	switch period {
	case entity.PeriodDaily, entity.PeriodWeekly, entity.PeriodMonthly, entity.PeriodYearly:
	case "":
		period = entity.PeriodDaily
	default:
		return nil, errors.BadRequest("Period must be daily, weekly, monthly, or yearly", nil)
	}

	if date.IsZero() {
		date = time.Now()
	}
	normalized := entity.NormalizeBucketDate(period, date)

	bucket, err := uc.analyticsRepo.Get(ctx, storeID, period, normalized)
	if errors.Is(err, "NOT_FOUND") {
		return &entity.AnalyticsBucket{
			StoreID: storeID,
			Period:  period,
			Date:    normalized,
			Metrics: entity.BucketMetrics{BlockedByCategory: map[string]int{}},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

// rollMean folds v into a running average whose count has already been
// incremented to n.
func rollMean(oldAvg float64, n int, v float64) float64 {
	return (oldAvg*float64(n-1) + v) / float64(n)
}

// bumpTop increments the entry for id, inserting it when absent, then
// re-sorts and trims the list.
func bumpTop(list *[]entity.TopEntry, id, name string) {
	entries := *list
	found := false
	for i := range entries {
		if entries[i].ID == id {
			entries[i].Count++
			if name != "" {
				entries[i].Name = name
			}
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, entity.TopEntry{ID: id, Name: name, Count: 1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > topListLimit {
		entries = entries[:topListLimit]
	}
	*list = entries
}

func eventTime(event eventbus.Event) time.Time {
	if event.Timestamp.IsZero() {
		return time.Now()
	}
	return event.Timestamp
}

func truthy(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func floatValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
