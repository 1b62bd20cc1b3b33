package services

import (
	"context"
	"testing"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySettingsRepo struct {
	repositories.SettingsRepository

	rows map[int]models.UserSettings
}

func (r *memorySettingsRepo) Get(_ context.Context, userID int) (*models.UserSettings, error) {
	s, ok := r.rows[userID]
	if !ok {
		return nil, repositories.ErrSettingsNotFound
	}
	return &s, nil
}

func (r *memorySettingsRepo) Upsert(_ context.Context, s *models.UserSettings) error {
	r.rows[s.UserID] = *s
	return nil
}

func TestSettingsDefaultsAndPartialUpdate(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()
	repo := &memorySettingsRepo{rows: make(map[int]models.UserSettings)}
	svc := NewSettingsService(repo, c, NewInvalidator(c, nil))

	settings, err := svc.GetSettings(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(8), *settings)

	off := false
	lang := " EN "
	updated, err := svc.UpdateSettings(ctx, 8, SettingsInput{PushNotifications: &off, Language: &lang})
	require.NoError(t, err)
	assert.False(t, updated.PushNotifications)
	assert.True(t, updated.EmailNotifications)
	assert.Equal(t, "en", updated.Language)

	// the cached defaults were dropped by the update
	settings, err = svc.GetSettings(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "en", settings.Language)
	assert.False(t, settings.PushNotifications)
}

func TestSettingsRejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	repo := &memorySettingsRepo{rows: make(map[int]models.UserSettings)}
	svc := NewSettingsService(repo, nil, nil)

	vis := models.ProfileVisibility("everyone")
	_, err := svc.UpdateSettings(ctx, 1, SettingsInput{ProfileVisibility: &vis})
	assert.ErrorIs(t, err, ErrInvalidSettings)

	lang := "fr"
	_, err = svc.UpdateSettings(ctx, 1, SettingsInput{Language: &lang})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Empty(t, repo.rows)
}
