package repository

import (
	"context"
	"errors"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// ProgressRepository persists one ProgressRecord per item under store.ProgressPrefix
type ProgressRepository struct {
	store store.Store
}

func NewProgressRepository(s store.Store) *ProgressRepository {
	return &ProgressRepository{store: s}
}

// Get returns the record for itemID, or nil when the item was never tracked
func (r *ProgressRepository) Get(ctx context.Context, itemID string) (*models.ProgressRecord, error) {
	var record models.ProgressRecord
	found, err := loadJSON(ctx, r.store, store.ProgressKey(itemID), &record)
	if err != nil || !found {
		return nil, err
	}
	record.ItemID = itemID
	if record.TimeSpentSeconds < 0 {
		record.TimeSpentSeconds = 0
	}
	return &record, nil
}

// Save overwrites the record for record.ItemID
func (r *ProgressRepository) Save(ctx context.Context, record models.ProgressRecord) error {
	return saveJSON(ctx, r.store, store.ProgressKey(record.ItemID), record)
}

// All returns every decodable record ordered by item id. Corrupt entries are
// skipped.
func (r *ProgressRepository) All(ctx context.Context) ([]models.ProgressRecord, error) {
	keys, err := r.store.Keys(ctx, store.ProgressPrefix)
	if err != nil {
		return nil, err
	}

	records := make([]models.ProgressRecord, 0, len(keys))
	for _, key := range keys {
		itemID, ok := store.ItemFromProgressKey(key)
		if !ok {
			continue
		}
		record, err := r.Get(ctx, itemID)
		if errors.Is(err, ErrCorrupt) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if record != nil {
			records = append(records, *record)
		}
	}
	return records, nil
}
