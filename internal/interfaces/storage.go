package interfaces

import (
	"context"

	"github.com/bobmcallan/mcpbridge/internal/models"
)

// StorageManager provides access to domain-specific storage interfaces.
// Implementations can be swapped (BadgerDB now, centralised DB later).
type StorageManager interface {
	ItemStorage() ItemStorage
	Close() error
}

// ItemStorage persists the host application's items.
type ItemStorage interface {
	Get(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, tag string, limit int) ([]models.Item, error)
	Put(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id string) error
}
