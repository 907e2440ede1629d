package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// BackupVersion is written into every snapshot
const BackupVersion = "1.0"

// BackupData represents a complete profile snapshot
type BackupData struct {
	Version     string                  `json:"version"`
	ExportedAt  time.Time               `json:"exported_at"`
	Stats       *models.EngagementStats `json:"stats,omitempty"`
	Badges      models.EarnedBadges     `json:"badges"`
	Favorites   []string                `json:"favorites"`
	Collections []models.Collection     `json:"collections"`
	Settings    *models.Settings        `json:"settings,omitempty"`
	LastItem    *models.LastItem        `json:"last_item,omitempty"`
	Progress    []models.ProgressRecord `json:"progress"`
}

// BackupService exports and imports whole profiles
type BackupService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

func NewBackupService(repos *repository.Repositories, logger *zap.Logger) *BackupService {
	return &BackupService{repos: repos, logger: logger}
}

// Snapshot collects every stored record. Unreadable records are left out.
func (s *BackupService) Snapshot(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{Version: BackupVersion, ExportedAt: time.Now()}
	var err error

	backup.Stats, err = s.repos.Stats.Get(ctx)
	if err = s.tolerate("stats", err); err != nil {
		return nil, err
	}
	backup.Badges, err = s.repos.Badges.Earned(ctx)
	if err = s.tolerate("badges", err); err != nil {
		return nil, err
	}
	backup.Favorites, err = s.repos.Favorites.List(ctx)
	if err = s.tolerate("favorites", err); err != nil {
		return nil, err
	}
	backup.Collections, err = s.repos.Collections.List(ctx)
	if err = s.tolerate("collections", err); err != nil {
		return nil, err
	}
	backup.Settings, err = s.repos.Settings.GetSettings(ctx)
	if err = s.tolerate("settings", err); err != nil {
		return nil, err
	}
	backup.LastItem, err = s.repos.LastItem.Get(ctx)
	if err = s.tolerate("last item", err); err != nil {
		return nil, err
	}
	backup.Progress, err = s.repos.Progress.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export progress: %w", err)
	}
	return backup, nil
}

// tolerate swallows corrupt-record errors, which export as absent
func (s *BackupService) tolerate(what string, err error) error {
	if err == nil {
		return nil
	}
	if isCorrupt(err) {
		s.logger.Warn("Skipping unreadable record", zap.String("record", what), zap.Error(err))
		return nil
	}
	return fmt.Errorf("failed to export %s: %w", what, err)
}

// Export writes the profile snapshot as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	backup, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("Profile exported",
		zap.Int("favorites", len(backup.Favorites)),
		zap.Int("collections", len(backup.Collections)),
		zap.Int("progress", len(backup.Progress)),
		zap.Int("badges", len(backup.Badges)),
	)
	return nil
}

// Import merges a snapshot into the stored profile without losing local data
func (s *BackupService) Import(ctx context.Context, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version == "" {
		return fmt.Errorf("failed to decode backup: missing version")
	}

	s.logger.Info("Importing profile", zap.String("version", backup.Version), zap.Time("exported_at", backup.ExportedAt))

	if err := s.importStats(ctx, backup.Stats); err != nil {
		return fmt.Errorf("failed to import stats: %w", err)
	}
	if err := s.importBadges(ctx, backup.Badges); err != nil {
		return fmt.Errorf("failed to import badges: %w", err)
	}
	if err := s.importFavorites(ctx, backup.Favorites); err != nil {
		return fmt.Errorf("failed to import favorites: %w", err)
	}
	if err := s.importCollections(ctx, backup.Collections); err != nil {
		return fmt.Errorf("failed to import collections: %w", err)
	}
	if err := s.importSettings(ctx, backup.Settings); err != nil {
		return fmt.Errorf("failed to import settings: %w", err)
	}
	if err := s.importLastItem(ctx, backup.LastItem); err != nil {
		return fmt.Errorf("failed to import last item: %w", err)
	}
	if err := s.importProgress(ctx, backup.Progress); err != nil {
		return fmt.Errorf("failed to import progress: %w", err)
	}

	s.logger.Info("Profile import completed successfully")
	return nil
}

func (s *BackupService) importStats(ctx context.Context, imported *models.EngagementStats) error {
	if imported == nil {
		return nil
	}
	current, err := s.repos.Stats.Get(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}
	merged := *imported
	merged.Normalize()
	if current != nil {
		merged = models.MergeStats(*current, *imported)
	}
	return s.repos.Stats.Save(ctx, merged)
}

func (s *BackupService) importBadges(ctx context.Context, imported models.EarnedBadges) error {
	current, err := s.repos.Badges.Earned(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}
	return s.repos.Badges.Save(ctx, current.Union(imported))
}

func (s *BackupService) importFavorites(ctx context.Context, imported []string) error {
	current, err := s.repos.Favorites.List(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}
	return s.repos.Favorites.Save(ctx, models.UnionFavorites(current, imported))
}

func (s *BackupService) importCollections(ctx context.Context, imported []models.Collection) error {
	current, err := s.repos.Collections.List(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}

	index := make(map[string]int, len(current))
	for i, c := range current {
		index[c.ID] = i
	}
	for _, c := range imported {
		if c.ID == "" {
			continue
		}
		if i, ok := index[c.ID]; ok {
			for _, item := range c.Items {
				current[i].Add(item)
			}
			continue
		}
		c.Normalize()
		index[c.ID] = len(current)
		current = append(current, c)
	}
	return s.repos.Collections.Save(ctx, current)
}

func (s *BackupService) importSettings(ctx context.Context, imported *models.Settings) error {
	if imported == nil {
		return nil
	}
	current, err := s.repos.Settings.GetSettings(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}
	if current != nil {
		return nil
	}
	return s.repos.Settings.SetSettings(ctx, *imported)
}

func (s *BackupService) importLastItem(ctx context.Context, imported *models.LastItem) error {
	if imported == nil || imported.ItemID == "" {
		return nil
	}
	current, err := s.repos.LastItem.Get(ctx)
	if err != nil && !isCorrupt(err) {
		return err
	}
	if current != nil && !imported.Timestamp.After(current.Timestamp) {
		return nil
	}
	return s.repos.LastItem.Save(ctx, *imported)
}

func (s *BackupService) importProgress(ctx context.Context, imported []models.ProgressRecord) error {
	for _, record := range imported {
		if record.ItemID == "" {
			continue
		}
		current, err := s.repos.Progress.Get(ctx, record.ItemID)
		if err != nil && !isCorrupt(err) {
			return err
		}
		if current != nil {
			record = models.ResolveProgress(*current, record)
		}
		if err := s.repos.Progress.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to import progress %s: %w", record.ItemID, err)
		}
	}
	return nil
}
