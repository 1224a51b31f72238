package repository

import (
	"context"

	"lapakchat/internal/domain/entity"
)

// UserRepository reads identities supplied by the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// StoreRepository resolves store references owned by the catalog side.
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}

// ItemRepository resolves catalog items for conversation anchoring and
// inquiry analytics.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Item, error)
}
