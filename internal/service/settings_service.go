package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagetrail/internal/models"
	"pagetrail/internal/repository"
)

// SettingsService manages reader preferences
type SettingsService struct {
	settings *repository.SettingsRepository
	logger   *zap.Logger
}

func NewSettingsService(repos *repository.Repositories, logger *zap.Logger) *SettingsService {
	return &SettingsService{settings: repos.Settings, logger: logger}
}

// Get returns the stored settings. First use creates defaults with a fresh
// device id and persists them so the id stays stable. When the store cannot
// be read the defaults are returned without being saved.
func (s *SettingsService) Get(ctx context.Context) models.Settings {
	current, ok := s.load(ctx)
	if !ok {
		return models.Settings{FontSize: models.FontMedium}
	}
	settings := withDefaults(current)
	if current == nil || current.DeviceID == "" {
		s.write(ctx, settings)
	}
	return settings
}

// withDefaults fills a missing record or device id
func withDefaults(current *models.Settings) models.Settings {
	if current == nil {
		return models.Settings{FontSize: models.FontMedium, DeviceID: uuid.NewString()}
	}
	settings := *current
	if settings.DeviceID == "" {
		settings.DeviceID = uuid.NewString()
	}
	return settings
}

// load reads the stored settings. A corrupt record counts as absent; ok is
// false only when the store failed.
func (s *SettingsService) load(ctx context.Context) (*models.Settings, bool) {
	settings, err := s.settings.GetSettings(ctx)
	switch {
	case err == nil:
		return settings, true
	case isCorrupt(err):
		s.logger.Warn("Settings corrupt, using defaults", zap.Error(err))
		return nil, true
	default:
		s.logger.Error("Failed to load settings", zap.Error(err))
		return nil, false
	}
}

func (s *SettingsService) write(ctx context.Context, settings models.Settings) bool {
	if err := s.settings.SetSettings(ctx, settings); err != nil {
		s.logger.Error("Failed to save settings", zap.Error(err))
		return false
	}
	return true
}

// Save overwrites the settings. An unknown font size falls back to medium and
// the device id is kept. Nothing is written when the current device id cannot
// be read.
func (s *SettingsService) Save(ctx context.Context, settings models.Settings) models.Settings {
	if !models.ValidFontSize(settings.FontSize) {
		settings.FontSize = models.FontMedium
	}
	if settings.DeviceID == "" {
		current, ok := s.load(ctx)
		if !ok {
			return settings
		}
		if current != nil && current.DeviceID != "" {
			settings.DeviceID = current.DeviceID
		} else {
			settings.DeviceID = uuid.NewString()
		}
	}
	s.write(ctx, settings)
	return settings
}

// ToggleNightMode flips night mode and returns the new value
func (s *SettingsService) ToggleNightMode(ctx context.Context) bool {
	current, ok := s.load(ctx)
	if !ok {
		return false
	}
	settings := withDefaults(current)
	settings.NightMode = !settings.NightMode
	s.write(ctx, settings)
	return settings.NightMode
}
