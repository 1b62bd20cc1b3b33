package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

var ErrSettingsNotFound = errors.New("settings not found")

type SettingsRepository interface {
	Get(ctx context.Context, userID int) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
	Delete(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

func (r *postgresSettingsRepository) Get(ctx context.Context, userID int) (*models.UserSettings, error) {
	s := &models.UserSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, email_notifications, push_notifications, profile_visibility, show_stats, language, updated_at
		FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&s.UserID, &s.EmailNotifications, &s.PushNotifications, &s.ProfileVisibility, &s.ShowStats, &s.Language, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to scan settings of user %d: %w", userID, err)
	}
	return s, nil
}

func (r *postgresSettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_settings (user_id, email_notifications, push_notifications, profile_visibility, show_stats, language, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			profile_visibility = EXCLUDED.profile_visibility,
			show_stats = EXCLUDED.show_stats,
			language = EXCLUDED.language,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at`,
		s.UserID, s.EmailNotifications, s.PushNotifications, s.ProfileVisibility, s.ShowStats, s.Language,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to save settings of user %d: %w", s.UserID, err)
	}
	return nil
}

func (r *postgresSettingsRepository) Delete(ctx context.Context, exec SQLExecutor, userID int) error {
	if _, err := executor(r.db, exec).ExecContext(ctx, `DELETE FROM user_settings WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete settings of user %d: %w", userID, err)
	}
	return nil
}
