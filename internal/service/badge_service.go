package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// BadgeService evaluates badge conditions and keeps the earned set
type BadgeService struct {
	catalog     []models.BadgeDefinition
	stats       *StatsService
	earned      *repository.BadgeRepository
	favorites   *repository.FavoritesRepository
	collections *repository.CollectionRepository
	logger      *zap.Logger
}

// NewBadgeService creates a badge service over the default badge catalog
func NewBadgeService(repos *repository.Repositories, stats *StatsService, logger *zap.Logger) *BadgeService {
	return &BadgeService{
		catalog:     models.BadgeCatalog(),
		stats:       stats,
		earned:      repos.Badges,
		favorites:   repos.Favorites,
		collections: repos.Collections,
		logger:      logger,
	}
}

// refreshDerived recomputes the counters owned by other stores
func (s *BadgeService) refreshDerived(ctx context.Context, stats *models.EngagementStats) bool {
	changed := false

	if favorites, err := s.favorites.List(ctx); err != nil {
		s.logger.Warn("Failed to count favorites", zap.Error(err))
	} else if len(favorites) != stats.FavoritesCount {
		stats.FavoritesCount = len(favorites)
		changed = true
	}

	if collections, err := s.collections.List(ctx); err != nil {
		s.logger.Warn("Failed to count collections", zap.Error(err))
	} else if len(collections) != stats.CollectionsCreated {
		stats.CollectionsCreated = len(collections)
		changed = true
	}

	return changed
}

// Evaluate refreshes the derived counters, records every badge whose
// condition newly holds and returns them in catalog order. Nothing is
// returned when the stats or the earned set cannot be read or written, so a
// badge is never reported twice.
func (s *BadgeService) Evaluate(ctx context.Context, now time.Time) []models.BadgeDefinition {
	stats, ok := s.stats.load(ctx, now)
	if !ok {
		return nil
	}
	if s.refreshDerived(ctx, &stats) {
		s.stats.Save(ctx, stats)
	}

	earned, err := s.earned.Earned(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrCorrupt) {
			s.logger.Error("Failed to load earned badges", zap.Error(err))
			return nil
		}
		s.logger.Warn("Earned badges unreadable, starting over", zap.Error(err))
		earned = models.EarnedBadges{}
	}

	fresh := models.NewlyEarned(s.catalog, stats, earned)
	if len(fresh) == 0 {
		return nil
	}

	for _, badge := range fresh {
		earned = append(earned, badge.ID)
	}
	if err := s.earned.Save(ctx, earned); err != nil {
		s.logger.Error("Failed to save earned badges", zap.Error(err))
		return nil
	}

	for _, badge := range fresh {
		s.logger.Info("Badge earned", zap.String("badge", badge.ID))
	}
	return fresh
}

// Earned returns the earned badge ids
func (s *BadgeService) Earned(ctx context.Context) models.EarnedBadges {
	earned, err := s.earned.Earned(ctx)
	if err != nil {
		s.logger.Warn("Earned badges unreadable", zap.Error(err))
		return models.EarnedBadges{}
	}
	return earned
}

// AllBadges lists the whole catalog with each badge's earned flag
func (s *BadgeService) AllBadges(ctx context.Context) []models.BadgeStatus {
	earned := s.Earned(ctx)
	statuses := make([]models.BadgeStatus, 0, len(s.catalog))
	for _, badge := range s.catalog {
		statuses = append(statuses, models.BadgeStatus{BadgeDefinition: badge, Earned: earned.Has(badge.ID)})
	}
	return statuses
}
