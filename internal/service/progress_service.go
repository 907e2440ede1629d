package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// DefaultTimeUnit is the time credited to an item per RecordProgress call
const DefaultTimeUnit = time.Second

// ProgressService tracks per-item resume position and accumulated time.
// Time is credited in fixed units per call rather than measured, so callers
// are expected to report progress at a steady cadence of one unit.
type ProgressService struct {
	progress *repository.ProgressRepository
	lastItem *repository.LastItemRepository
	unit     int64
	logger   *zap.Logger
}

// NewProgressService creates a progress service crediting unit per call
func NewProgressService(repos *repository.Repositories, unit time.Duration, logger *zap.Logger) *ProgressService {
	seconds := int64(unit / time.Second)
	if seconds < 1 {
		seconds = int64(DefaultTimeUnit / time.Second)
	}
	return &ProgressService{
		progress: repos.Progress,
		lastItem: repos.LastItem,
		unit:     seconds,
		logger:   logger,
	}
}

// RecordProgress credits one time unit to itemID and stores position as its
// resume cursor. ok is false when the stored record could not be read or the
// result could not be saved; nothing is overwritten in the first case.
func (s *ProgressService) RecordProgress(ctx context.Context, itemID string, kind models.ItemKind, position json.RawMessage, now time.Time) (models.ProgressRecord, bool) {
	record, ok := s.load(ctx, itemID)
	if !ok {
		return models.ProgressRecord{ItemID: itemID, Kind: kind}, false
	}
	if record == nil {
		record = &models.ProgressRecord{ItemID: itemID, StartedAt: now}
	}

	if kind != "" {
		record.Kind = kind
	}
	record.Position = position
	record.TimeSpentSeconds += s.unit
	record.UpdatedAt = now

	if err := s.progress.Save(ctx, *record); err != nil {
		s.logger.Error("Failed to save progress", zap.String("item_id", itemID), zap.Error(err))
		return *record, false
	}
	if err := s.lastItem.Save(ctx, models.LastItem{ItemID: itemID, Kind: record.Kind, Position: record.Position, Timestamp: now}); err != nil {
		s.logger.Error("Failed to save last item", zap.String("item_id", itemID), zap.Error(err))
	}
	return *record, true
}

// Get returns the progress for itemID or nil when it was never tracked
func (s *ProgressService) Get(ctx context.Context, itemID string) *models.ProgressRecord {
	record, _ := s.load(ctx, itemID)
	return record
}

// load reads the record for itemID. A corrupt record counts as never
// tracked; ok is false only when the store failed.
func (s *ProgressService) load(ctx context.Context, itemID string) (*models.ProgressRecord, bool) {
	record, err := s.progress.Get(ctx, itemID)
	switch {
	case err == nil:
		return record, true
	case isCorrupt(err):
		s.logger.Warn("Progress record corrupt", zap.String("item_id", itemID), zap.Error(err))
		return nil, true
	default:
		s.logger.Error("Failed to load progress", zap.String("item_id", itemID), zap.Error(err))
		return nil, false
	}
}

// Save overwrites the stored record, used when a remote copy wins a merge
func (s *ProgressService) Save(ctx context.Context, record models.ProgressRecord) {
	if err := s.progress.Save(ctx, record); err != nil {
		s.logger.Error("Failed to save progress", zap.String("item_id", record.ItemID), zap.Error(err))
	}
}

// HasStarted reports whether any time was credited to itemID
func (s *ProgressService) HasStarted(ctx context.Context, itemID string) bool {
	record := s.Get(ctx, itemID)
	return record != nil && record.HasStarted()
}

// All returns every progress record ordered by item id
func (s *ProgressService) All(ctx context.Context) []models.ProgressRecord {
	records, _ := s.list(ctx)
	return records
}

func (s *ProgressService) list(ctx context.Context) ([]models.ProgressRecord, bool) {
	records, err := s.progress.All(ctx)
	if err != nil {
		s.logger.Error("Failed to list progress", zap.Error(err))
		return []models.ProgressRecord{}, false
	}
	return records, true
}

// FormatDuration renders accumulated time for display. ok is false below one
// minute.
func FormatDuration(seconds int64) (string, bool) {
	if seconds < 60 {
		return "", false
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes), true
	}
	return fmt.Sprintf("%d min", minutes), true
}
