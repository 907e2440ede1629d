package repository

import (
	"context"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// LastItemRepository remembers the most recently touched item
type LastItemRepository struct {
	store store.Store
}

func NewLastItemRepository(s store.Store) *LastItemRepository {
	return &LastItemRepository{store: s}
}

func (r *LastItemRepository) Get(ctx context.Context) (*models.LastItem, error) {
	var item models.LastItem
	found, err := loadJSON(ctx, r.store, store.KeyLastItem, &item)
	if err != nil || !found || item.ItemID == "" {
		return nil, err
	}
	return &item, nil
}

func (r *LastItemRepository) Save(ctx context.Context, item models.LastItem) error {
	return saveJSON(ctx, r.store, store.KeyLastItem, item)
}
