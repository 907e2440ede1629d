package service

import (
	"context"

	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// FavoritesService manages the favorites set
type FavoritesService struct {
	favorites *repository.FavoritesRepository
	logger    *zap.Logger
}

func NewFavoritesService(repos *repository.Repositories, logger *zap.Logger) *FavoritesService {
	return &FavoritesService{favorites: repos.Favorites, logger: logger}
}

// List returns the favorite item ids in sorted order
func (s *FavoritesService) List(ctx context.Context) []string {
	ids, _ := s.load(ctx)
	return ids
}

// load reads the stored set. A corrupt record counts as empty; ok is false
// only when the store failed.
func (s *FavoritesService) load(ctx context.Context) ([]string, bool) {
	ids, err := s.favorites.List(ctx)
	switch {
	case err == nil:
		return ids, true
	case isCorrupt(err):
		s.logger.Warn("Favorites corrupt, starting empty", zap.Error(err))
		return []string{}, true
	default:
		s.logger.Error("Failed to load favorites", zap.Error(err))
		return []string{}, false
	}
}

// IsFavorite reports whether itemID is a favorite
func (s *FavoritesService) IsFavorite(ctx context.Context, itemID string) bool {
	for _, id := range s.List(ctx) {
		if id == itemID {
			return true
		}
	}
	return false
}

// Toggle flips membership of itemID and returns the new membership. ok is
// false when nothing was changed because the set could not be read or saved.
func (s *FavoritesService) Toggle(ctx context.Context, itemID string) (isFavorite, ok bool) {
	ids, ok := s.load(ctx)
	if !ok {
		return false, false
	}
	for i, id := range ids {
		if id == itemID {
			return false, s.Replace(ctx, append(ids[:i], ids[i+1:]...))
		}
	}
	return true, s.Replace(ctx, append(ids, itemID))
}

// Merge unions others into the stored set and returns the result. ok is false
// when the stored set could not be read, in which case nothing is written.
func (s *FavoritesService) Merge(ctx context.Context, others ...[]string) ([]string, bool) {
	local, ok := s.load(ctx)
	if !ok {
		return nil, false
	}
	merged := models.UnionFavorites(append([][]string{local}, others...)...)
	return merged, s.Replace(ctx, merged)
}

// Replace overwrites the stored set
func (s *FavoritesService) Replace(ctx context.Context, ids []string) bool {
	if err := s.favorites.Save(ctx, ids); err != nil {
		s.logger.Error("Failed to save favorites", zap.Error(err))
		return false
	}
	return true
}
