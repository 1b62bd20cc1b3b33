package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

var ErrCheckoutNotFound = errors.New("checkout session not found")

type CheckoutRepository interface {
	Create(ctx context.Context, s *models.CheckoutSession) error
	GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.CheckoutSession, error)
	MarkCompleted(ctx context.Context, exec SQLExecutor, id string) error
}

type postgresCheckoutRepository struct {
	db *sql.DB
}

func NewPostgresCheckoutRepository(db *sql.DB) CheckoutRepository {
	return &postgresCheckoutRepository{db: db}
}

func (r *postgresCheckoutRepository) Create(ctx context.Context, s *models.CheckoutSession) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO checkout_sessions (id, user_id, tier, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		s.ID, s.UserID, s.Tier, s.AmountCents, s.Currency, s.Status,
	).Scan(&s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout session: %w", err)
	}
	return nil
}

func (r *postgresCheckoutRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.CheckoutSession, error) {
	s := &models.CheckoutSession{}
	err := executor(r.db, exec).QueryRowContext(ctx, `
		SELECT id, user_id, tier, amount_cents, currency, status, created_at
		FROM checkout_sessions WHERE id = $1 FOR UPDATE`, id,
	).Scan(&s.ID, &s.UserID, &s.Tier, &s.AmountCents, &s.Currency, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCheckoutNotFound
		}
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	return s, nil
}

func (r *postgresCheckoutRepository) MarkCompleted(ctx context.Context, exec SQLExecutor, id string) error {
	result, err := executor(r.db, exec).ExecContext(ctx,
		`UPDATE checkout_sessions SET status = 'completed' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to complete checkout session: %w", err)
	}
	return checkAffectedRows(result, ErrCheckoutNotFound)
}
