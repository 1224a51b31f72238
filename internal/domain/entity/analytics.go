package entity

import "time"

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

// TopEntry is an element of a bounded, count-descending top list.
type TopEntry struct {
	ID    string `json:"id" firestore:"id"`
	Name  string `json:"name" firestore:"name"`
	Count int    `json:"count" firestore:"count"`
}

type BucketMetrics struct {
	TotalMessages     int            `json:"total_messages" firestore:"totalMessages"`
	TotalChats        int            `json:"total_chats" firestore:"totalChats"`
	FilesShared       int            `json:"files_shared" firestore:"filesShared"`
	ReceiptsSent      int            `json:"receipts_sent" firestore:"receiptsSent"`
	BlockedMessages   int            `json:"blocked_messages" firestore:"blockedMessages"`
	BlockedByCategory map[string]int `json:"blocked_by_category" firestore:"blockedByCategory"`

	AvgResponseTime float64 `json:"avg_response_time" firestore:"avgResponseTime"`
	ResponseCount   int     `json:"response_count" firestore:"responseCount"`
	AvgRating       float64 `json:"avg_rating" firestore:"avgRating"`
	RatingCount     int     `json:"rating_count" firestore:"ratingCount"`

	TopInquiredItems []TopEntry `json:"top_inquired_items" firestore:"topInquiredItems"`
	TopCustomers     []TopEntry `json:"top_customers" firestore:"topCustomers"`
}

// AnalyticsBucket is one period-scoped aggregate for a store, lazily
// created on first write and never deleted by this subsystem.
type AnalyticsBucket struct {
	ID      string    `json:"id" firestore:"id"`
	StoreID string    `json:"store_id" firestore:"storeId"`
	Period  string    `json:"period" firestore:"period"` // "daily", "weekly", "monthly", "yearly"
	Date    time.Time `json:"date" firestore:"date"`     // normalized to the period start

	Metrics BucketMetrics `json:"metrics" firestore:"metrics"`

	// Populated only for daily buckets, slot index is the wall-clock hour.
	HourlyBreakdown [24]int `json:"hourly_breakdown" firestore:"hourlyBreakdown"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// NormalizeBucketDate keys t to the start of the containing period:
// daily to midnight, weekly to Monday 00:00, monthly to the 1st,
// yearly to Jan 1.
func NormalizeBucketDate(period string, t time.Time) time.Time {
	switch period {
	case PeriodWeekly:
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		offset := (int(midnight.Weekday()) + 6) % 7 // Monday = 0
		return midnight.AddDate(0, 0, -offset)
	case PeriodMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case PeriodYearly:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}
