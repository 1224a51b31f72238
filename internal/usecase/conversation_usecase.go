package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/internal/infrastructure/eventbus"
	"lapakchat/internal/infrastructure/moderation"
	"lapakchat/internal/infrastructure/ratelimit"
	ws "lapakchat/internal/infrastructure/websocket"
	"lapakchat/pkg/errors"
	"lapakchat/pkg/logger"
)

// ModerationRemediation is the generic guidance returned with every
// rejection. Rule internals are never exposed.
const ModerationRemediation = "Remove contact information, links, or payment details and try again"

type ConversationUseCase struct {
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	storeRepo        repository.StoreRepository
	itemRepo         repository.ItemRepository
	deletionRepo     repository.DeletionRequestRepository
	wsManager        *ws.Manager
	bus              *eventbus.Bus
	rateLimiter      *ratelimit.RateLimiter
	locks            *lockTable
}

func NewConversationUseCase(
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	itemRepo repository.ItemRepository,
	deletionRepo repository.DeletionRequestRepository,
	wsManager *ws.Manager,
	bus *eventbus.Bus,
	rateLimiter *ratelimit.RateLimiter,
) *ConversationUseCase {
	return &ConversationUseCase{
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		storeRepo:        storeRepo,
		itemRepo:         itemRepo,
		deletionRepo:     deletionRepo,
		wsManager:        wsManager,
		bus:              bus,
		rateLimiter:      rateLimiter,
		locks:            newLockTable(),
	}
}

type StartConversationInput struct {
	StoreID string
	ItemID  string
}

type SendMessageInput struct {
	Content string
	Type    string
	File    *entity.FileAttachment
	Receipt *entity.ReceiptAttachment
}

// ModerationRejection is the designed outcome of a blocked send. It is
// delivered only to the sender and carries per-category match counts, not
// the matched substrings.
type ModerationRejection struct {
	Reason      string         `json:"reason"`
	Categories  map[string]int `json:"categories"`
	Remediation string         `json:"remediation"`
}

type ConversationResponse struct {
	*entity.Conversation
	Store           *entity.Store `json:"store,omitempty"`
	Item            *entity.Item  `json:"item,omitempty"`
	OtherUser       *entity.User  `json:"other_user,omitempty"`
	OtherUserOnline bool          `json:"other_user_online"`
}

type MessageResponse struct {
	*entity.Message
	Sender *entity.User `json:"sender,omitempty"`
}

// StartConversation returns the existing non-archived conversation for
// (customer, store), updating the anchored item when a different one is
// supplied, or creates a new one with both participants seeded active.
func (uc *ConversationUseCase) StartConversation(ctx context.Context, customerID string, input StartConversationInput) (*ConversationResponse, error) {
	store, err := uc.storeRepo.GetByID(ctx, input.StoreID)
	if err != nil {
		return nil, errors.NotFound("Store", err)
	}

	if customerID == store.OwnerID {
		return nil, errors.BadRequest("You cannot start a conversation with your own store", nil)
	}

	var item *entity.Item
	if input.ItemID != "" {
		item, err = uc.itemRepo.GetByID(ctx, input.ItemID)
		if err != nil {
			return nil, errors.NotFound("Item", err)
		}
	}

	conversation, err := uc.conversationRepo.FindByCustomerAndStore(ctx, customerID, input.StoreID)
	switch {
	case err == nil:
		if item != nil && conversation.ItemID != item.ID {
			conversation.ItemID = item.ID
			if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, "NOT_FOUND"):
		now := time.Now()
		conversation = &entity.Conversation{
			CustomerID:   customerID,
			StoreOwnerID: store.OwnerID,
			StoreID:      store.ID,
			Status:       entity.ConversationActive,
			Participants: []entity.Participant{
				{UserID: customerID, Role: entity.RoleCustomer, JoinedAt: now, IsActive: true},
				{UserID: store.OwnerID, Role: entity.RoleStoreOwner, JoinedAt: now, IsActive: true},
			},
			ParticipantIDs: []string{customerID, store.OwnerID},
			UnreadCount: map[string]int{
				entity.RoleCustomer:   0,
				entity.RoleStoreOwner: 0,
			},
		}
		if item != nil {
			conversation.ItemID = item.ID
		}
		if err := uc.conversationRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}

		systemMessage := &entity.Message{
			ConversationID: conversation.ID,
			SenderID:       entity.SystemSenderID,
			Content:        "Conversation started",
			Type:           entity.MessageTypeSystem,
		}
		if err := uc.conversationRepo.CreateMessage(ctx, systemMessage); err != nil {
			logger.Warn("StartConversation: failed to write opening system message for %s: %v", conversation.ID, err)
		} else {
			conversation.LastMessage = &entity.LastMessage{
				Content:     systemMessage.Content,
				SenderID:    systemMessage.SenderID,
				MessageType: systemMessage.Type,
				Timestamp:   systemMessage.CreatedAt,
			}
			if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
				logger.Warn("StartConversation: failed to refresh last message for %s: %v", conversation.ID, err)
			}
		}
	default:
		return nil, err
	}

	if item != nil {
		uc.bus.Publish(eventbus.Event{
			Type:    eventbus.TypeInquiryCreated,
			StoreID: store.ID,
			Payload: map[string]interface{}{
				"item_id":   item.ID,
				"item_name": item.Name,
			},
		})
	}

	resp := &ConversationResponse{Conversation: conversation, Store: store, Item: item}
	uc.attachOtherUser(ctx, resp, customerID)
	return resp, nil
}

// AuthorizeParticipant loads the conversation and verifies the caller is
// an active participant.
func (uc *ConversationUseCase) AuthorizeParticipant(ctx context.Context, conversationID, userID string) (*entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conversation.ActiveParticipant(userID) == nil {
		return nil, errors.Forbidden("You are not an active participant in this conversation", nil)
	}
	return conversation, nil
}

// SendMessage gates the content through the moderation engine, appends the
// accepted message under the conversation lock, and fans the result out to
// every room subscriber including the sender. A blocked verdict produces a
// rejection for the sender alone; nothing is persisted.
func (uc *ConversationUseCase) SendMessage(ctx context.Context, conversationID, senderID string, input SendMessageInput) (*MessageResponse, *ModerationRejection, error) {
	allowed, wait := uc.rateLimiter.Allow(senderID)
	if !allowed {
		return nil, nil, errors.RateLimited("Message rate limit exceeded", wait)
	}

	if input.Content == "" && input.File == nil && input.Receipt == nil {
		return nil, nil, errors.BadRequest("Message requires content, a file, or a receipt", nil)
	}

	messageType := coerceMessageType(input)

	// Moderation runs before any state mutation and never blocks on I/O.
	if input.Content != "" {
		verdict := moderation.Classify(input.Content)
		if verdict.IsBlocked {
			rejection := &ModerationRejection{
				Reason:      verdict.Reason,
				Categories:  verdict.MatchCounts(),
				Remediation: ModerationRemediation,
			}
			uc.publishBlocked(ctx, conversationID, verdict)
			return nil, rejection, nil
		}
	}

	// Resolved before the lock: nothing slow may sit between acceptance
	// and broadcast.
	sender, err := uc.userRepo.GetByID(ctx, senderID)
	if err != nil {
		logger.Warn("SendMessage: sender %s not resolvable: %v", senderID, err)
	}

	resp, err := uc.acceptMessage(ctx, conversationID, senderID, sender, input, messageType)
	if err != nil {
		return nil, nil, err
	}
	return resp, nil, nil
}

// acceptMessage runs the mutating half of a send under the conversation
// lock. The broadcast happens inside the critical section too, so
// subscribers observe messages in acceptance order; room delivery never
// blocks, so holding the lock across it is safe.
func (uc *ConversationUseCase) acceptMessage(ctx context.Context, conversationID, senderID string, sender *entity.User, input SendMessageInput, messageType string) (*MessageResponse, error) {
	lock := uc.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	participant := conversation.ActiveParticipant(senderID)
	if participant == nil {
		return nil, errors.Forbidden("You are not an active participant in this conversation", nil)
	}
	if conversation.Status != entity.ConversationActive {
		return nil, errors.Forbidden("This conversation does not accept new messages", nil)
	}

	previousLast := conversation.LastMessage

	message := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        input.Content,
		Type:           messageType,
		File:           input.File,
		Receipt:        input.Receipt,
		ReadBy:         []entity.ReadReceipt{{UserID: senderID, ReadAt: time.Now()}},
	}

	if err := uc.conversationRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	counterpart := entity.CounterpartRole(participant.Role)
	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.UnreadCount[counterpart]++

	conversation.LastMessage = &entity.LastMessage{
		Content:     message.Content,
		SenderID:    message.SenderID,
		MessageType: message.Type,
		Timestamp:   message.CreatedAt,
	}

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		return nil, err
	}

	resp := &MessageResponse{Message: message, Sender: sender}

	// All subscribers, sender included, receive the accepted message so
	// optimistic UIs reconcile uniformly.
	uc.wsManager.BroadcastToRoom(conversationID, ws.NewEnvelope(ws.EventMessage, conversationID, resp))

	uc.publishSent(conversation, participant.Role, message, previousLast)

	return resp, nil
}

// coerceMessageType derives the effective type from the payload: a
// receipt payload always wins, a file without a receipt is an image.
func coerceMessageType(input SendMessageInput) string {
	switch {
	case input.Receipt != nil:
		return entity.MessageTypeReceipt
	case input.File != nil:
		return entity.MessageTypeImage
	case input.Type != "":
		return input.Type
	default:
		return entity.MessageTypeText
	}
}

func (uc *ConversationUseCase) publishSent(conversation *entity.Conversation, senderRole string, message *entity.Message, previousLast *entity.LastMessage) {
	payload := map[string]interface{}{
		"customer_id": conversation.CustomerID,
		"sender_role": senderRole,
		"has_file":    message.File != nil,
		"has_receipt": message.Receipt != nil,
	}

	// A store-owner message directly following a customer message is a
	// response; its latency feeds the rolling response-time average.
	if senderRole == entity.RoleStoreOwner && previousLast != nil && previousLast.SenderID == conversation.CustomerID {
		payload["response_seconds"] = message.CreatedAt.Sub(previousLast.Timestamp).Seconds()
	}

	uc.bus.Publish(eventbus.Event{
		Type:      eventbus.TypeMessageSent,
		StoreID:   conversation.StoreID,
		Timestamp: message.CreatedAt,
		Payload:   payload,
	})
}

func (uc *ConversationUseCase) publishBlocked(ctx context.Context, conversationID string, verdict moderation.Verdict) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		logger.Warn("publishBlocked: conversation %s not resolvable: %v", conversationID, err)
		return
	}

	categories := make([]string, 0, len(verdict.Violations))
	for _, v := range verdict.Violations {
		categories = append(categories, v.Type)
	}

	uc.bus.Publish(eventbus.Event{
		Type:    eventbus.TypeMessageBlocked,
		StoreID: conversation.StoreID,
		Payload: map[string]interface{}{
			"categories": categories,
		},
	})
}

// MarkRead zeroes the caller's unread counter and appends read receipts
// to every message the caller has not yet read. Repeated calls are no-ops
// beyond the counter reset.
func (uc *ConversationUseCase) MarkRead(ctx context.Context, conversationID, userID string) error {
	lock := uc.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	participant := conversation.ActiveParticipant(userID)
	if participant == nil {
		return errors.Forbidden("You are not an active participant in this conversation", nil)
	}

	if conversation.UnreadCount == nil {
		conversation.UnreadCount = make(map[string]int)
	}
	conversation.UnreadCount[participant.Role] = 0

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		return err
	}

	messages, _, err := uc.conversationRepo.ListMessages(ctx, conversationID, 0, 0)
	if err != nil {
		return err
	}

	readAt := time.Now()
	for _, message := range messages {
		if message.SenderID == userID || message.IsDeleted || message.ReadByUser(userID) {
			continue
		}
		message.ReadBy = append(message.ReadBy, entity.ReadReceipt{UserID: userID, ReadAt: readAt})
		if err := uc.conversationRepo.UpdateMessage(ctx, message); err != nil {
			logger.Warn("MarkRead: failed to update receipt on message %s: %v", message.ID, err)
		}
	}

	uc.wsManager.BroadcastToRoomExcept(conversationID, userID,
		ws.NewEnvelope(ws.EventReadReceipt, conversationID, ws.ReadReceiptData{
			UserID: userID,
			ReadAt: readAt.UTC().Format(time.RFC3339),
		}))

	return nil
}

// SoftDeleteMessage replaces the content with a placeholder, permanently.
// Only the author may delete; deleting twice is a conflict.
func (uc *ConversationUseCase) SoftDeleteMessage(ctx context.Context, conversationID, messageID, callerID string) error {
	lock := uc.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := uc.AuthorizeParticipant(ctx, conversationID, callerID)
	if err != nil {
		return err
	}

	message, err := uc.conversationRepo.GetMessageByID(ctx, conversationID, messageID)
	if err != nil {
		return err
	}

	if message.SenderID != callerID {
		return errors.Forbidden("Only the author can delete a message", nil)
	}
	if message.IsDeleted {
		return errors.Conflict("Message is already deleted")
	}

	now := time.Now()
	message.Content = entity.DeletedPlaceholder
	message.File = nil
	message.Receipt = nil
	message.IsDeleted = true
	message.DeletedAt = &now

	if err := uc.conversationRepo.UpdateMessage(ctx, message); err != nil {
		return err
	}

	// A deleted message no longer counts as unread for the counterpart.
	authorRole, _ := conversation.ParticipantRole(message.SenderID)
	counterpart := entity.CounterpartRole(authorRole)
	counterpartUser := conversation.CustomerID
	if counterpart == entity.RoleStoreOwner {
		counterpartUser = conversation.StoreOwnerID
	}
	if !message.ReadByUser(counterpartUser) && conversation.UnreadCount[counterpart] > 0 {
		conversation.UnreadCount[counterpart]--
		return uc.conversationRepo.Update(ctx, conversation)
	}

	return nil
}

// Rate records the customer's one-shot satisfaction rating and relays it
// to the store side.
func (uc *ConversationUseCase) Rate(ctx context.Context, conversationID, callerID string, rating int) error {
	if rating < 1 || rating > 5 {
		return errors.BadRequest("Rating must be between 1 and 5", nil)
	}

	lock := uc.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	participant := conversation.ActiveParticipant(callerID)
	if participant == nil || participant.Role != entity.RoleCustomer {
		return errors.Forbidden("Only the customer can rate a conversation", nil)
	}
	if conversation.Analytics.CustomerSatisfaction != nil {
		return errors.Conflict("Conversation is already rated")
	}

	now := time.Now()
	conversation.Analytics.CustomerSatisfaction = &rating
	conversation.Analytics.RatedAt = &now

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		return err
	}

	uc.wsManager.BroadcastToRoomExcept(conversationID, callerID,
		ws.NewEnvelope(ws.EventRating, conversationID, ws.RatingData{UserID: callerID, Rating: rating}))

	uc.bus.Publish(eventbus.Event{
		Type:    eventbus.TypeRatingCreated,
		StoreID: conversation.StoreID,
		Payload: map[string]interface{}{
			"rating": rating,
		},
	})

	return nil
}

// Archive closes the conversation for new sends without deleting anything.
func (uc *ConversationUseCase) Archive(ctx context.Context, conversationID, callerID string) error {
	lock := uc.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := uc.AuthorizeParticipant(ctx, conversationID, callerID)
	if err != nil {
		return err
	}
	if conversation.Status == entity.ConversationArchived {
		return errors.Conflict("Conversation is already archived")
	}

	conversation.Status = entity.ConversationArchived
	return uc.conversationRepo.Update(ctx, conversation)
}

// SetBlocked lets the store owner stop or resume a conversation.
func (uc *ConversationUseCase) SetBlocked(ctx context.Context, conversationID, callerID string, blocked bool, reason string) error {
	lock := uc.locks.get(conversationID)
	lock.Lock()
	defer lock.Unlock()

	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	participant := conversation.ActiveParticipant(callerID)
	if participant == nil || participant.Role != entity.RoleStoreOwner {
		return errors.Forbidden("Only the store owner can block a conversation", nil)
	}

	if blocked {
		conversation.Status = entity.ConversationBlocked
		conversation.BlockReason = reason
	} else {
		conversation.Status = entity.ConversationActive
		conversation.BlockReason = ""
	}

	return uc.conversationRepo.Update(ctx, conversation)
}

type ConversationDetail struct {
	ConversationResponse
	Messages      []*entity.Message `json:"messages"`
	TotalMessages int64             `json:"total_messages"`
}

// GetConversation returns the conversation with one page of messages in
// acceptance order.
func (uc *ConversationUseCase) GetConversation(ctx context.Context, conversationID, userID string, limit, offset int) (*ConversationDetail, error) {
	conversation, err := uc.AuthorizeParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	messages, total, err := uc.conversationRepo.ListMessages(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	detail := &ConversationDetail{
		ConversationResponse: ConversationResponse{Conversation: conversation},
		Messages:             messages,
		TotalMessages:        total,
	}
	uc.attachOtherUser(ctx, &detail.ConversationResponse, userID)
	return detail, nil
}

// ListConversations pages through the caller's conversations, newest
// activity first, optionally filtered by status.
func (uc *ConversationUseCase) ListConversations(ctx context.Context, userID, status string, limit, offset int) ([]*ConversationResponse, int64, error) {
	conversations, total, err := uc.conversationRepo.ListByParticipant(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp := &ConversationResponse{Conversation: conversation}
		uc.attachOtherUser(ctx, resp, userID)
		responses = append(responses, resp)
	}

	return responses, total, nil
}

func (uc *ConversationUseCase) attachOtherUser(ctx context.Context, resp *ConversationResponse, userID string) {
	otherID := resp.CustomerID
	if userID == resp.CustomerID {
		otherID = resp.StoreOwnerID
	}

	otherUser, err := uc.userRepo.GetByID(ctx, otherID)
	if err != nil {
		logger.Warn("Conversation %s: counterpart %s not resolvable: %v", resp.Conversation.ID, otherID, err)
		return
	}
	resp.OtherUser = otherUser
	resp.OtherUserOnline = uc.wsManager.IsOnline(otherID)
}

type SearchResult struct {
	ConversationID string          `json:"conversation_id"`
	Message        *entity.Message `json:"message"`
}

// SearchMessages does a case-insensitive substring match over the
// caller's non-deleted message content, ranked by recency.
func (uc *ConversationUseCase) SearchMessages(ctx context.Context, callerID, query, status string, limit int) ([]*SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, errors.BadRequest("Search query must be at least 2 characters", nil)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	conversations, _, err := uc.conversationRepo.ListByParticipant(ctx, callerID, status, 0, 0)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var results []*SearchResult

	for _, conversation := range conversations {
		messages, _, err := uc.conversationRepo.ListMessages(ctx, conversation.ID, 0, 0)
		if err != nil {
			logger.Warn("SearchMessages: skipping conversation %s: %v", conversation.ID, err)
			continue
		}
		for _, message := range messages {
			if message.IsDeleted {
				continue
			}
			if strings.Contains(strings.ToLower(message.Content), needle) {
				results = append(results, &SearchResult{
					ConversationID: conversation.ID,
					Message:        message,
				})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Message.CreatedAt.After(results[j].Message.CreatedAt)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// RequestDeletion queues a GDPR erasure request. It is a record, not an
// immediate erasure; duplicates while one is pending are conflicts.
func (uc *ConversationUseCase) RequestDeletion(ctx context.Context, conversationID, callerID, reason string) (*entity.DeletionRequest, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if _, ok := conversation.ParticipantRole(callerID); !ok {
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	existing, err := uc.deletionRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, request := range existing {
		if request.Status == "pending" {
			return nil, errors.Conflict("A deletion request is already pending")
		}
	}

	request := &entity.DeletionRequest{
		ConversationID: conversationID,
		RequestedBy:    callerID,
		Reason:         reason,
		Status:         "pending",
	}
	if err := uc.deletionRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}
