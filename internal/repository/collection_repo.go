package repository

import (
	"context"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

// CollectionRepository persists the ordered list of collections
type CollectionRepository struct {
	store store.Store
}

func NewCollectionRepository(s store.Store) *CollectionRepository {
	return &CollectionRepository{store: s}
}

// List returns every collection in creation order
func (r *CollectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	var collections []models.Collection
	if _, err := loadJSON(ctx, r.store, store.KeyCollections, &collections); err != nil {
		return []models.Collection{}, err
	}
	out := make([]models.Collection, 0, len(collections))
	for _, c := range collections {
		if c.ID == "" {
			continue
		}
		c.Normalize()
		out = append(out, c)
	}
	return out, nil
}

// Save overwrites the collection list
func (r *CollectionRepository) Save(ctx context.Context, collections []models.Collection) error {
	if collections == nil {
		collections = []models.Collection{}
	}
	return saveJSON(ctx, r.store, store.KeyCollections, collections)
}
