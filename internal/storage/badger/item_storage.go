package badger

import (
	"context"
	"fmt"

	"github.com/bobmcallan/mcpbridge/internal/common"
	"github.com/bobmcallan/mcpbridge/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ItemStorage implements interfaces.ItemStorage using BadgerDB.
type ItemStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// NewItemStorage creates item storage backed by BadgerDB.
func NewItemStorage(db *BadgerDB, logger *common.Logger) *ItemStorage {
	return &ItemStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an item by ID.
func (s *ItemStorage) Get(_ context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := s.db.Store().Get(id, &item)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("item not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get item %s: %w", id, err)
	}
	return &item, nil
}

// List retrieves items, optionally filtered by tag and capped at limit.
// A limit of 0 returns everything.
func (s *ItemStorage) List(_ context.Context, tag string, limit int) ([]models.Item, error) {
	var items []models.Item
	var query *badgerhold.Query
	if tag != "" {
		query = badgerhold.Where("Tags").Contains(tag)
	}
	if err := s.db.Store().Find(&items, query); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Put inserts or updates an item.
func (s *ItemStorage) Put(_ context.Context, item *models.Item) error {
	if err := s.db.Store().Upsert(item.ID, item); err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes an item.
func (s *ItemStorage) Delete(_ context.Context, id string) error {
	err := s.db.Store().Delete(id, models.Item{})
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}
