package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

type ContactRepository interface {
	// Subscribe reports whether the address was newly added.
	Subscribe(ctx context.Context, email string) (bool, error)
	SaveMessage(ctx context.Context, m *models.ContactMessage) error
}

type postgresContactRepository struct {
	db *sql.DB
}

func NewPostgresContactRepository(db *sql.DB) ContactRepository {
	return &postgresContactRepository{db: db}
}

func (r *postgresContactRepository) Subscribe(ctx context.Context, email string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (email) VALUES (LOWER($1))
		ON CONFLICT ON CONSTRAINT newsletter_subscribers_email_key DO NOTHING`, email)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe %q: %w", email, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *postgresContactRepository) SaveMessage(ctx context.Context, m *models.ContactMessage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, subject, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, m.Name, m.Email, m.Subject, m.Body).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
