package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/domain/repository"
	"lapakchat/pkg/errors"
)

type firestoreStoreRepository struct {
	client *firestore.Client
}

func NewFirestoreStoreRepository(client *firestore.Client) repository.StoreRepository {
	return &firestoreStoreRepository{
		client: client,
	}
}

func (r *firestoreStoreRepository) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	doc, err := r.client.Collection("stores").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Store", nil)
		}
		return nil, errors.Internal("Failed to get store", err)
	}

	var store entity.Store
	if err := doc.DataTo(&store); err != nil {
		return nil, errors.Internal("Failed to parse store data", err)
	}

	return &store, nil
}

type firestoreItemRepository struct {
	client *firestore.Client
}

func NewFirestoreItemRepository(client *firestore.Client) repository.ItemRepository {
	return &firestoreItemRepository{
		client: client,
	}
}

func (r *firestoreItemRepository) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	doc, err := r.client.Collection("items").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Item", nil)
		}
		return nil, errors.Internal("Failed to get item", err)
	}

	var item entity.Item
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse item data", err)
	}

	return &item, nil
}
