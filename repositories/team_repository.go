package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name conflict")
	ErrTeamMemberNotFound = errors.New("team member user not found")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, exec SQLExecutor, team *models.Team) error
	ReplaceMembers(ctx context.Context, exec SQLExecutor, teamID int, userIDs []int) error
	UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err, "teams_name_key") {
		return ErrTeamNameConflict
	}
	if isForeignKeyViolation(err) {
		return ErrTeamMemberNotFound
	}
	return err
}

// Create inserts the team and enrolls its captain as the first member.
func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Team) error {
	ex := executor(r.db, exec)
	query := `
		INSERT INTO teams (name, city, description, captain_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	if err := ex.QueryRowContext(ctx, query, t.Name, t.City, t.Description, t.CaptainID).Scan(&t.ID, &t.CreatedAt); err != nil {
		return r.handleTeamError(err)
	}
	if _, err := ex.ExecContext(ctx, `INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, t.ID, t.CaptainID); err != nil {
		return fmt.Errorf("failed to enroll captain of team %d: %w", t.ID, r.handleTeamError(err))
	}
	t.MemberCount = 1
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.city, t.description, t.captain_id, t.logo_key, t.average_rating, t.rating_count, t.created_at,
		       u.id, u.username
		FROM teams t
		JOIN users u ON u.id = t.captain_id
		WHERE t.id = $1`

	t := &models.Team{Captain: &models.User{}}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.City, &t.Description, &t.CaptainID, &t.LogoKey, &t.AverageRating, &t.RatingCount, &t.CreatedAt,
		&t.Captain.ID, &t.Captain.Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %d: %w", id, err)
	}

	members, err := r.members(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Members = members
	t.MemberCount = len(members)
	return t, nil
}

func (r *postgresTeamRepository) members(ctx context.Context, teamID int) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.first_name, u.last_name, u.position, u.skill_level, u.avatar_key,
		       u.average_rating, u.rating_count
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.joined_at, u.id`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Position, &u.SkillLevel, &u.AvatarKey,
			&u.AverageRating, &u.RatingCount); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.city, t.description, t.captain_id, t.logo_key, t.average_rating, t.rating_count, t.created_at,
		       (SELECT COUNT(*) FROM team_members tm WHERE tm.team_id = t.id)
		FROM teams t
		ORDER BY t.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.Description, &t.CaptainID, &t.LogoKey, &t.AverageRating,
			&t.RatingCount, &t.CreatedAt, &t.MemberCount); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Team) error {
	result, err := executor(r.db, exec).ExecContext(ctx,
		`UPDATE teams SET name = $1, city = $2, description = $3, captain_id = $4 WHERE id = $5`,
		t.Name, t.City, t.Description, t.CaptainID, t.ID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// ReplaceMembers swaps the whole roster for userIDs. Callers run it in a
// transaction so a failed insert leaves the previous roster in place.
func (r *postgresTeamRepository) ReplaceMembers(ctx context.Context, exec SQLExecutor, teamID int, userIDs []int) error {
	ex := executor(r.db, exec)
	if _, err := ex.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("failed to clear roster of team %d: %w", teamID, err)
	}
	if len(userIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO team_members (team_id, user_id)
		SELECT $1, member_id FROM unnest($2::int[]) WITH ORDINALITY AS m(member_id, pos)
		ORDER BY pos
		ON CONFLICT DO NOTHING`
	if _, err := ex.ExecContext(ctx, query, teamID, pq.Array(userIDs)); err != nil {
		return r.handleTeamError(err)
	}
	return nil
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET logo_key = $1 WHERE id = $2`, logoKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update logo for team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
