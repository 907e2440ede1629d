package repository

import (
	"context"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// StatsRepository persists the EngagementStats record
type StatsRepository struct {
	store store.Store
}

func NewStatsRepository(s store.Store) *StatsRepository {
	return &StatsRepository{store: s}
}

// Get returns the stored stats, or nil when none were saved yet
func (r *StatsRepository) Get(ctx context.Context) (*models.EngagementStats, error) {
	var stats models.EngagementStats
	found, err := loadJSON(ctx, r.store, store.KeyStats, &stats)
	if err != nil || !found {
		return nil, err
	}
	stats.Normalize()
	return &stats, nil
}

// Save overwrites the stats record
func (r *StatsRepository) Save(ctx context.Context, stats models.EngagementStats) error {
	if stats.GenresSeen == nil {
		stats.GenresSeen = []string{}
	}
	return saveJSON(ctx, r.store, store.KeyStats, stats)
}
