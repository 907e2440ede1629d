package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// StatsService owns the EngagementStats record
type StatsService struct {
	stats    *repository.StatsRepository
	lastItem *repository.LastItemRepository
	logger   *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(repos *repository.Repositories, logger *zap.Logger) *StatsService {
	return &StatsService{
		stats:    repos.Stats,
		lastItem: repos.LastItem,
		logger:   logger,
	}
}

// Get returns the current stats, falling back to first-use defaults when the
// stored record is absent or unreadable.
func (s *StatsService) Get(ctx context.Context, now time.Time) models.EngagementStats {
	stats, _ := s.load(ctx, now)
	return stats
}

// load reads the stored stats. Absent and corrupt records yield first-use
// defaults. ok is false when the store itself failed, in which case the
// defaults must not be written back.
func (s *StatsService) load(ctx context.Context, now time.Time) (models.EngagementStats, bool) {
	stats, err := s.stats.Get(ctx)
	switch {
	case err == nil && stats != nil:
		return *stats, true
	case err == nil:
		return models.NewEngagementStats(now), true
	case isCorrupt(err):
		s.logger.Warn("Stats record corrupt, using defaults", zap.Error(err))
		return models.NewEngagementStats(now), true
	default:
		s.logger.Error("Failed to load stats", zap.Error(err))
		return models.NewEngagementStats(now), false
	}
}

// Save persists stats. Failures are logged and otherwise ignored.
func (s *StatsService) Save(ctx context.Context, stats models.EngagementStats) {
	if err := s.stats.Save(ctx, stats); err != nil {
		s.logger.Error("Failed to save stats", zap.Error(err))
	}
}

// RecordActivity counts one opening of itemID at now and persists the result.
// Nothing is written when the stored stats cannot be read. Badge evaluation
// is left to the caller.
func (s *StatsService) RecordActivity(ctx context.Context, itemID string, kind models.ItemKind, genre string, now time.Time) (models.EngagementStats, bool) {
	stats, ok := s.load(ctx, now)
	if !ok {
		return stats, false
	}

	stats.BooksStarted++
	stats.TotalSessions++
	switch kind {
	case models.KindAudio:
		stats.AudiobooksPlayed++
	case models.KindEbook:
		stats.EbooksRead++
	}

	hour := now.Hour()
	if hour >= 0 && hour < 4 {
		stats.NightReading = true
	}
	if hour >= 5 && hour < 7 {
		stats.EarlyReading = true
	}

	stats.AddGenre(genre)
	UpdateStreak(&stats, now)
	if err := s.stats.Save(ctx, stats); err != nil {
		s.logger.Error("Failed to save stats", zap.Error(err))
		return stats, false
	}

	if err := s.lastItem.Save(ctx, models.LastItem{ItemID: itemID, Kind: kind, Timestamp: now}); err != nil {
		s.logger.Error("Failed to save last item", zap.String("item_id", itemID), zap.Error(err))
	}

	s.logger.Debug("Activity recorded",
		zap.String("item_id", itemID),
		zap.String("kind", string(kind)),
		zap.Int("current_streak", stats.CurrentStreak),
	)
	return stats, true
}

// LastItem returns the most recently opened or progressed item
func (s *StatsService) LastItem(ctx context.Context) *models.LastItem {
	item, err := s.lastItem.Get(ctx)
	if err != nil {
		s.logger.Warn("Last item unreadable", zap.Error(err))
		return nil
	}
	return item
}
