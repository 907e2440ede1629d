package repository

import (
	"context"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// FavoritesRepository persists the favorites set as a sorted id list
type FavoritesRepository struct {
	store store.Store
}

func NewFavoritesRepository(s store.Store) *FavoritesRepository {
	return &FavoritesRepository{store: s}
}

// List returns the favorite item ids, sorted and de-duplicated
func (r *FavoritesRepository) List(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := loadJSON(ctx, r.store, store.KeyFavorites, &ids); err != nil {
		return []string{}, err
	}
	return models.UnionFavorites(ids), nil
}

// Save overwrites the favorites set
func (r *FavoritesRepository) Save(ctx context.Context, ids []string) error {
	return saveJSON(ctx, r.store, store.KeyFavorites, models.UnionFavorites(ids))
}
