package repository

import (
	"context"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// BadgeRepository persists the set of earned badge ids
type BadgeRepository struct {
	store store.Store
}

func NewBadgeRepository(s store.Store) *BadgeRepository {
	return &BadgeRepository{store: s}
}

// Earned returns the earned badge ids in earning order
func (r *BadgeRepository) Earned(ctx context.Context) (models.EarnedBadges, error) {
	var earned models.EarnedBadges
	if _, err := loadJSON(ctx, r.store, store.KeyBadges, &earned); err != nil {
		return nil, err
	}
	// Stored duplicates collapse to a single entry
	return models.EarnedBadges{}.Union(earned), nil
}

// Save overwrites the earned set
func (r *BadgeRepository) Save(ctx context.Context, earned models.EarnedBadges) error {
	if earned == nil {
		earned = models.EarnedBadges{}
	}
	return saveJSON(ctx, r.store, store.KeyBadges, earned)
}
