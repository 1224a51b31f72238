package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lapakchat/internal/domain/entity"
	"lapakchat/pkg/errors"
)

// In-memory repository fakes. They mirror the Firestore implementations'
// observable behavior: ids assigned on create, NOT_FOUND app errors,
// messages listed in creation order.

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	seq           int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func (r *fakeConversationRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversation.ID == "" {
		conversation.ID = r.nextID("conv")
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conversation
	return &copied, nil
}

func (r *fakeConversationRepo) FindByCustomerAndStore(ctx context.Context, customerID, storeID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conversation := range r.conversations {
		if conversation.CustomerID == customerID && conversation.StoreID == storeID && conversation.Status != entity.ConversationArchived {
			copied := *conversation
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, userID, status string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.Conversation
	for _, conversation := range r.conversations {
		member := false
		for _, id := range conversation.ParticipantIDs {
			if id == userID {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		if status != "" && conversation.Status != status {
			continue
		}
		copied := *conversation
		matched = append(matched, &copied)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total := int64(len(matched))
	if offset > len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[conversation.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	conversation.UpdatedAt = time.Now()
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = r.nextID("msg")
	}
	// Creation order is the acceptance order; the sequence breaks clock ties.
	message.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Microsecond)
	copied := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &copied)
	return nil
}

func (r *fakeConversationRepo) GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, message := range r.messages[conversationID] {
		if message.ID == messageID {
			copied := *message
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Message", nil)
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.messages[conversationID]
	listed := make([]*entity.Message, 0, len(stored))
	for _, message := range stored {
		copied := *message
		listed = append(listed, &copied)
	}

	total := int64(len(listed))
	if offset > len(listed) {
		return nil, total, nil
	}
	listed = listed[offset:]
	if limit > 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	return listed, total, nil
}

func (r *fakeConversationRepo) UpdateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, stored := range r.messages[message.ConversationID] {
		if stored.ID == message.ID {
			copied := *message
			r.messages[message.ConversationID][i] = &copied
			return nil
		}
	}
	return errors.NotFound("Message", nil)
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, errors.NotFound("User", nil)
}

// slowUserRepo delays lookups for one user, standing in for a tardy
// profile read.
type slowUserRepo struct {
	inner  *fakeUserRepo
	slowID string
	delay  time.Duration
}

func (r *slowUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if id == r.slowID {
		time.Sleep(r.delay)
	}
	return r.inner.GetByID(ctx, id)
}

type fakeStoreRepo struct {
	stores map[string]*entity.Store
}

func (r *fakeStoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	if store, ok := r.stores[id]; ok {
		return store, nil
	}
	return nil, errors.NotFound("Store", nil)
}

type fakeItemRepo struct {
	items map[string]*entity.Item
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	if item, ok := r.items[id]; ok {
		return item, nil
	}
	return nil, errors.NotFound("Item", nil)
}

type fakeDeletionRepo struct {
	mu       sync.Mutex
	requests []*entity.DeletionRequest
	seq      int
}

func (r *fakeDeletionRepo) Create(ctx context.Context, request *entity.DeletionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	request.ID = fmt.Sprintf("del-%d", r.seq)
	request.CreatedAt = time.Now()
	copied := *request
	r.requests = append(r.requests, &copied)
	return nil
}

func (r *fakeDeletionRepo) ListByConversation(ctx context.Context, conversationID string) ([]*entity.DeletionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.DeletionRequest
	for _, request := range r.requests {
		if request.ConversationID == conversationID {
			copied := *request
			matched = append(matched, &copied)
		}
	}
	return matched, nil
}

type fakeAnalyticsRepo struct {
	mu      sync.Mutex
	buckets map[string]*entity.AnalyticsBucket
}

func newFakeAnalyticsRepo() *fakeAnalyticsRepo {
	return &fakeAnalyticsRepo{buckets: make(map[string]*entity.AnalyticsBucket)}
}

func bucketKey(storeID, period string, date time.Time) string {
	return storeID + "|" + period + "|" + date.Format("2006-01-02")
}

func (r *fakeAnalyticsRepo) Get(ctx context.Context, storeID, period string, date time.Time) (*entity.AnalyticsBucket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bucket, ok := r.buckets[bucketKey(storeID, period, date)]; ok {
		copied := *bucket
		return &copied, nil
	}
	return nil, errors.NotFound("Analytics bucket", nil)
}

func (r *fakeAnalyticsRepo) Create(ctx context.Context, bucket *entity.AnalyticsBucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket.ID = bucketKey(bucket.StoreID, bucket.Period, bucket.Date)
	bucket.CreatedAt = time.Now()
	copied := *bucket
	r.buckets[bucket.ID] = &copied
	return nil
}

func (r *fakeAnalyticsRepo) Update(ctx context.Context, bucket *entity.AnalyticsBucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := bucketKey(bucket.StoreID, bucket.Period, bucket.Date)
	bucket.UpdatedAt = time.Now()
	copied := *bucket
	r.buckets[key] = &copied
	return nil
}
