package repository

import (
	"context"

	"lapakchat/internal/domain/entity"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// FindByCustomerAndStore returns the non-archived conversation for the
	// pair, or a NOT_FOUND error.
	FindByCustomerAndStore(ctx context.Context, customerID, storeID string) (*entity.Conversation, error)
	ListByParticipant(ctx context.Context, userID, status string, limit, offset int) ([]*entity.Conversation, int64, error)
	Update(ctx context.Context, conversation *entity.Conversation) error

	// Message methods (messages live in a per-conversation subcollection).
	CreateMessage(ctx context.Context, message *entity.Message) error
	GetMessageByID(ctx context.Context, conversationID, messageID string) (*entity.Message, error)
	ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)
	UpdateMessage(ctx context.Context, message *entity.Message) error
}

type DeletionRequestRepository interface {
	Create(ctx context.Context, request *entity.DeletionRequest) error
	ListByConversation(ctx context.Context, conversationID string) ([]*entity.DeletionRequest, error)
}
