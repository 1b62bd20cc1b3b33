package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipConflict = errors.New("friendship between these users already exists")
)

type FriendshipRepository interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByID(ctx context.Context, id int) (*models.Friendship, error)
	GetBetween(ctx context.Context, userA, userB int) (*models.Friendship, error)
	Accept(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
	ListFriends(ctx context.Context, userID int) ([]models.User, error)
	ListRequests(ctx context.Context, userID int) (*models.FriendRequests, error)
}

type postgresFriendshipRepository struct {
	db *sql.DB
}

func NewPostgresFriendshipRepository(db *sql.DB) FriendshipRepository {
	return &postgresFriendshipRepository{db: db}
}

func (r *postgresFriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	if f.Status == "" {
		f.Status = models.FriendshipPending
	}
	query := `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, f.RequesterID, f.AddresseeID, f.Status).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "friendships_pair_key") {
			return ErrFriendshipConflict
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create friend request: %w", err)
	}
	return nil
}

func (r *postgresFriendshipRepository) scanOne(ctx context.Context, query string, args ...any) (*models.Friendship, error) {
	f := &models.Friendship{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("failed to scan friendship: %w", err)
	}
	return f, nil
}

func (r *postgresFriendshipRepository) GetByID(ctx context.Context, id int) (*models.Friendship, error) {
	return r.scanOne(ctx,
		`SELECT id, requester_id, addressee_id, status, created_at FROM friendships WHERE id = $1`, id)
}

func (r *postgresFriendshipRepository) GetBetween(ctx context.Context, userA, userB int) (*models.Friendship, error) {
	return r.scanOne(ctx, `
		SELECT id, requester_id, addressee_id, status, created_at FROM friendships
		WHERE LEAST(requester_id, addressee_id) = LEAST($1::int, $2::int)
		  AND GREATEST(requester_id, addressee_id) = GREATEST($1::int, $2::int)`, userA, userB)
}

func (r *postgresFriendshipRepository) Accept(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friendships SET status = 'accepted' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("failed to accept friend request %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrFriendshipNotFound)
}

func (r *postgresFriendshipRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrFriendshipNotFound)
}

func (r *postgresFriendshipRepository) ListFriends(ctx context.Context, userID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.first_name, u.last_name, u.city, u.position, u.skill_level, u.avatar_key,
		       u.is_premium, u.average_rating, u.rating_count
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'accepted'
		ORDER BY u.username`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends of user %d: %w", userID, err)
	}
	defer rows.Close()

	friends := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.City, &u.Position, &u.SkillLevel,
			&u.AvatarKey, &u.IsPremium, &u.AverageRating, &u.RatingCount); err != nil {
			return nil, fmt.Errorf("failed to scan friend row: %w", err)
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

// ListRequests returns the user's pending requests split by direction, newest first.
func (r *postgresFriendshipRepository) ListRequests(ctx context.Context, userID int) (*models.FriendRequests, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at,
		       req.id, req.username, req.avatar_key,
		       adr.id, adr.username, adr.avatar_key
		FROM friendships f
		JOIN users req ON req.id = f.requester_id
		JOIN users adr ON adr.id = f.addressee_id
		WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = 'pending'
		ORDER BY f.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := &models.FriendRequests{Incoming: []models.Friendship{}, Outgoing: []models.Friendship{}}
	for rows.Next() {
		f := models.Friendship{Requester: &models.User{}, Addressee: &models.User{}}
		if err := rows.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt,
			&f.Requester.ID, &f.Requester.Username, &f.Requester.AvatarKey,
			&f.Addressee.ID, &f.Addressee.Username, &f.Addressee.AvatarKey); err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		if f.AddresseeID == userID {
			out.Incoming = append(out.Incoming, f)
		} else {
			out.Outgoing = append(out.Outgoing, f)
		}
	}
	return out, rows.Err()
}
