package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/pkg/errors"
)

type firestoreDeletionRequestRepository struct {
	client *firestore.Client
}

func NewFirestoreDeletionRequestRepository(client *firestore.Client) repository.DeletionRequestRepository {
	return &firestoreDeletionRequestRepository{
		client: client,
	}
}

func (r *firestoreDeletionRequestRepository) Create(ctx context.Context, request *entity.DeletionRequest) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	request.CreatedAt = time.Now()

	_, err := r.client.Collection("deletion_requests").Doc(request.ID).Set(ctx, request)
	if err != nil {
		return errors.Internal("Failed to create deletion request", err)
	}

	return nil
}

func (r *firestoreDeletionRequestRepository) ListByConversation(ctx context.Context, conversationID string) ([]*entity.DeletionRequest, error) {
	query := r.client.Collection("deletion_requests").Where("conversationId", "==", conversationID)

	iter := query.Documents(ctx)
	var requests []*entity.DeletionRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to query deletion requests", err)
		}

		var request entity.DeletionRequest
		if err := doc.DataTo(&request); err != nil {
			continue
		}
		requests = append(requests, &request)
	}

	return requests, nil
}
