package repository

import (
	"context"

	"pagetrail/internal/models"
	"pagetrail/internal/store"
)

type SettingsRepository struct {
	store store.Store
}

func NewSettingsRepository(s store.Store) *SettingsRepository {
	return &SettingsRepository{store: s}
}

// GetSettings retrieves the stored settings, or nil when none were saved yet
func (r *SettingsRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	found, err := loadJSON(ctx, r.store, store.KeySettings, &settings)
	if err != nil || !found {
		return nil, err
	}
	if !models.ValidFontSize(settings.FontSize) {
		settings.FontSize = models.FontMedium
	}
	return &settings, nil
}

// SetSettings updates or inserts the settings record
func (r *SettingsRepository) SetSettings(ctx context.Context, settings models.Settings) error {
	return saveJSON(ctx, r.store, store.KeySettings, settings)
}
