package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pagetrail/internal/store"
)

// ErrCorrupt marks a stored value that could not be decoded. Callers treat
// it like an absent record.
var ErrCorrupt = errors.New("corrupt record")

// loadJSON decodes key into v. found is false when the key is absent.
func loadJSON(ctx context.Context, s store.Store, key string, v interface{}) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return true, nil
}

func saveJSON(ctx context.Context, s store.Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}

// Repositories bundles every repository over one store
type Repositories struct {
	Stats       *StatsRepository
	Badges      *BadgeRepository
	Favorites   *FavoritesRepository
	Collections *CollectionRepository
	Progress    *ProgressRepository
	Settings    *SettingsRepository
	LastItem    *LastItemRepository
}

// New builds all repositories over s
func New(s store.Store) *Repositories {
	return &Repositories{
		Stats:       NewStatsRepository(s),
		Badges:      NewBadgeRepository(s),
		Favorites:   NewFavoritesRepository(s),
		Collections: NewCollectionRepository(s),
		Progress:    NewProgressRepository(s),
		Settings:    NewSettingsRepository(s),
		LastItem:    NewLastItemRepository(s),
	}
}
