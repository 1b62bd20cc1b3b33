package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/meetbasket/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
	ErrUsernameConflict  = errors.New("username conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListPlayers(ctx context.Context) ([]models.PlayerListItem, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error
	LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	UpdatePremium(ctx context.Context, exec SQLExecutor, id int, tier models.PremiumTier, expiresAt time.Time) error
	ExpirePremium(ctx context.Context, now time.Time) (int64, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `
	id, username, email, password_hash, first_name, last_name, city, bio, position,
	skill_level, height_cm, avatar_key, is_premium, premium_tier, premium_expires_at,
	average_rating, rating_count, created_at`

func scanUser(row interface{ Scan(...any) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.City, &u.Bio, &u.Position,
		&u.SkillLevel, &u.HeightCM, &u.AvatarKey, &u.IsPremium, &u.PremiumTier, &u.PremiumExpiresAt,
		&u.AverageRating, &u.RatingCount, &u.CreatedAt,
	)
}

func mapUserError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isUniqueViolation(err, "users_email_key"):
		return ErrUserEmailConflict
	case isUniqueViolation(err, "users_username_key"):
		return ErrUsernameConflict
	}
	return err
}

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, city)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.City,
	).Scan(&user.ID, &user.CreatedAt)

	return mapUserError(err)
}

func (r *postgresUserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	return r.queryOne(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
}

func (r *postgresUserRepository) queryOne(ctx context.Context, exec SQLExecutor, query string, arg any) (*models.User, error) {
	var user models.User
	if err := scanUser(exec.QueryRowContext(ctx, query, arg), &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *postgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, "LOWER(username) = LOWER($1)", username)
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) ListPlayers(ctx context.Context) ([]models.PlayerListItem, error) {
	query := `
		SELECT u.id, u.username, u.city, u.position, u.skill_level, u.avatar_key, u.is_premium,
		       u.average_rating, u.rating_count, COUNT(gp.id) AS games_played
		FROM users u
		LEFT JOIN game_participants gp ON gp.user_id = u.id
		GROUP BY u.id
		ORDER BY u.average_rating DESC, games_played DESC, u.username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := make([]models.PlayerListItem, 0)
	for rows.Next() {
		var p models.PlayerListItem
		if err := rows.Scan(&p.ID, &p.Username, &p.City, &p.Position, &p.SkillLevel, &p.AvatarKey, &p.IsPremium,
			&p.AverageRating, &p.RatingCount, &p.GamesPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player rows: %w", err)
	}
	return players, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			username = $1,
			email = $2,
			first_name = $3,
			last_name = $4,
			city = $5,
			bio = $6,
			position = $7,
			skill_level = $8,
			height_cm = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.City,
		user.Bio,
		user.Position,
		user.SkillLevel,
		user.HeightCM,
		user.ID,
	)
	if err != nil {
		return mapUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_key = $1 WHERE id = $2`, avatarKey, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// LockForUpdate reads the user row and holds its lock until exec's
// transaction ends.
func (r *postgresUserRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	return r.queryOne(ctx, executor(r.db, exec), `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresUserRepository) UpdatePremium(ctx context.Context, exec SQLExecutor, id int, tier models.PremiumTier, expiresAt time.Time) error {
	query := `
		UPDATE users SET is_premium = TRUE, premium_tier = $1, premium_expires_at = $2
		WHERE id = $3`
	result, err := executor(r.db, exec).ExecContext(ctx, query, tier, expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to update premium for user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// ExpirePremium clears the premium flag of every user whose expiry has passed.
func (r *postgresUserRepository) ExpirePremium(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users SET is_premium = FALSE
		WHERE is_premium AND premium_expires_at IS NOT NULL AND premium_expires_at <= $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire premium memberships: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresUserRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := executor(r.db, exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
