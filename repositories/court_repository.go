package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

var (
	ErrCourtNotFound = errors.New("court not found")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
	UpdateImageKey(ctx context.Context, id int, imageKey *string) error
	AddReview(ctx context.Context, review *models.CourtReview) error
	ListReviews(ctx context.Context, courtID int) ([]models.CourtReview, error)
	Checkin(ctx context.Context, exec SQLExecutor, courtID, userID int) (int, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

const courtColumns = `
	id, name, address, city, latitude, longitude, surface, hoops, indoor, lighting, is_free,
	description, image_key, average_rating, rating_count, checkin_count, created_by, created_at`

func scanCourt(row interface{ Scan(...any) error }, c *models.Court) error {
	return row.Scan(
		&c.ID, &c.Name, &c.Address, &c.City, &c.Latitude, &c.Longitude, &c.Surface, &c.Hoops, &c.Indoor, &c.Lighting, &c.IsFree,
		&c.Description, &c.ImageKey, &c.AverageRating, &c.RatingCount, &c.CheckinCount, &c.CreatedBy, &c.CreatedAt,
	)
}

func (r *postgresCourtRepository) Create(ctx context.Context, c *models.Court) error {
	query := `
		INSERT INTO courts (name, address, city, latitude, longitude, surface, hoops, indoor, lighting, is_free, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Address, c.City, c.Latitude, c.Longitude, c.Surface, c.Hoops, c.Indoor, c.Lighting, c.IsFree,
		c.Description, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	return nil
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts WHERE id = $1`
	var c models.Court
	if err := scanCourt(r.db.QueryRowContext(ctx, query, id), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, fmt.Errorf("failed to scan court %d: %w", id, err)
	}
	return &c, nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]models.Court, error) {
	query := `SELECT ` + courtColumns + ` FROM courts ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	defer rows.Close()

	courts := make([]models.Court, 0)
	for rows.Next() {
		var c models.Court
		if err := scanCourt(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan court row: %w", err)
		}
		courts = append(courts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating court rows: %w", err)
	}
	return courts, nil
}

func (r *postgresCourtRepository) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE courts SET image_key = $1 WHERE id = $2`, imageKey, id)
	if err != nil {
		return fmt.Errorf("failed to update image for court %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrCourtNotFound)
}

func (r *postgresCourtRepository) AddReview(ctx context.Context, review *models.CourtReview) error {
	query := `
		WITH inserted AS (
			INSERT INTO court_reviews (court_id, user_id, rating, content)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, created_at
		)
		SELECT i.id, i.created_at, u.username
		FROM inserted i JOIN users u ON u.id = i.user_id`

	err := r.db.QueryRowContext(ctx, query, review.CourtID, review.UserID, review.Rating, review.Content).
		Scan(&review.ID, &review.CreatedAt, &review.Username)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCourtNotFound
		}
		return fmt.Errorf("failed to add review to court %d: %w", review.CourtID, err)
	}
	return nil
}

func (r *postgresCourtRepository) ListReviews(ctx context.Context, courtID int) ([]models.CourtReview, error) {
	query := `
		SELECT cr.id, cr.court_id, cr.user_id, u.username, cr.rating, cr.content, cr.created_at
		FROM court_reviews cr
		JOIN users u ON u.id = cr.user_id
		WHERE cr.court_id = $1
		ORDER BY cr.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, courtID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for court %d: %w", courtID, err)
	}
	defer rows.Close()

	reviews := make([]models.CourtReview, 0)
	for rows.Next() {
		var rv models.CourtReview
		if err := rows.Scan(&rv.ID, &rv.CourtID, &rv.UserID, &rv.Username, &rv.Rating, &rv.Content, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// Checkin records a visit and returns the court's new checkin count.
func (r *postgresCourtRepository) Checkin(ctx context.Context, exec SQLExecutor, courtID, userID int) (int, error) {
	ex := executor(r.db, exec)

	var count int
	err := ex.QueryRowContext(ctx,
		`UPDATE courts SET checkin_count = checkin_count + 1 WHERE id = $1 RETURNING checkin_count`, courtID,
	).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCourtNotFound
		}
		return 0, fmt.Errorf("failed to bump checkin count for court %d: %w", courtID, err)
	}

	if _, err := ex.ExecContext(ctx, `INSERT INTO court_checkins (court_id, user_id) VALUES ($1, $2)`, courtID, userID); err != nil {
		return 0, fmt.Errorf("failed to record checkin for court %d: %w", courtID, err)
	}
	return count, nil
}
