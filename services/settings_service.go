package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
)

var supportedLanguages = map[string]bool{"de": true, "en": true}

type SettingsService interface {
	GetSettings(ctx context.Context, userID int) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID int, input SettingsInput) (*models.UserSettings, error)
}

// SettingsInput is a partial update; unset fields keep their value.
type SettingsInput struct {
	EmailNotifications *bool                     `json:"email_notifications"`
	PushNotifications  *bool                     `json:"push_notifications"`
	ProfileVisibility  *models.ProfileVisibility `json:"profile_visibility"`
	ShowStats          *bool                     `json:"show_stats"`
	Language           *string                   `json:"language"`
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	cache        *cache.Cache
	invalidator  *Invalidator
}

func NewSettingsService(settingsRepo repositories.SettingsRepository, c *cache.Cache, invalidator *Invalidator) SettingsService {
	return &settingsService{
		settingsRepo: settingsRepo,
		cache:        c,
		invalidator:  invalidator,
	}
}

// GetSettings returns the stored settings, or the defaults for users who
// never saved any.
func (s *settingsService) GetSettings(ctx context.Context, userID int) (*models.UserSettings, error) {
	return loadSettings(ctx, s.cache, s.settingsRepo, userID)
}

func loadSettings(ctx context.Context, c *cache.Cache, repo repositories.SettingsRepository, userID int) (*models.UserSettings, error) {
	settings, err := cache.GetOrLoad(ctx, c, settingsEntry(userID), func(ctx context.Context) (models.UserSettings, error) {
		stored, err := repo.Get(ctx, userID)
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return models.DefaultSettings(userID), nil
		}
		if err != nil {
			return models.UserSettings{}, err
		}
		return *stored, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, userID int, input SettingsInput) (*models.UserSettings, error) {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.EmailNotifications != nil {
		settings.EmailNotifications = *input.EmailNotifications
	}
	if input.PushNotifications != nil {
		settings.PushNotifications = *input.PushNotifications
	}
	if input.ProfileVisibility != nil {
		switch *input.ProfileVisibility {
		case models.VisibilityPublic, models.VisibilityFriends, models.VisibilityPrivate:
			settings.ProfileVisibility = *input.ProfileVisibility
		default:
			return nil, fmt.Errorf("%w: profile_visibility '%s'", ErrInvalidSettings, *input.ProfileVisibility)
		}
	}
	if input.ShowStats != nil {
		settings.ShowStats = *input.ShowStats
	}
	if input.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*input.Language))
		if !supportedLanguages[lang] {
			return nil, fmt.Errorf("%w: language '%s'", ErrInvalidSettings, *input.Language)
		}
		settings.Language = lang
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	s.invalidator.Apply(ctx, SettingsUpdated, userID)
	return settings, nil
}
