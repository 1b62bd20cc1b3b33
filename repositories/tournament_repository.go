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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentInvalidRef   = errors.New("tournament court or organizer reference invalid")
	ErrTeamAlreadyRegistered  = errors.New("team already registered for tournament")
	ErrTeamNotRegistered      = errors.New("team not registered for tournament")
	ErrTournamentDatesInvalid = errors.New("tournament end date before start date")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	CountTeams(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	AddTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error
	RemoveTeam(ctx context.Context, tournamentID, teamID int) error
	CountByMember(ctx context.Context, userID int) (int, error)
	UpdateStatusesByDates(ctx context.Context, now time.Time) (int64, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	t.id, t.name, t.description, t.organizer_id, t.court_id, t.start_date, t.end_date,
	t.max_teams, t.entry_fee, t.prize, t.status, t.created_at`

func tournamentScanTargets(t *models.Tournament) []any {
	return []any{
		&t.ID, &t.Name, &t.Description, &t.OrganizerID, &t.CourtID, &t.StartDate, &t.EndDate,
		&t.MaxTeams, &t.EntryFee, &t.Prize, &t.Status, &t.CreatedAt,
	}
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if isForeignKeyViolation(err) {
		return ErrTournamentInvalidRef
	}
	if name, ok := constraintViolation(err, pqCheckViolation); ok && name == "tournaments_dates_check" {
		return ErrTournamentDatesInvalid
	}
	return err
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, description, organizer_id, court_id, start_date, end_date,
		                         max_teams, entry_fee, prize, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	if t.Status == "" {
		t.Status = models.TournamentUpcoming
	}
	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.OrganizerID, t.CourtID, t.StartDate, t.EndDate,
		t.MaxTeams, t.EntryFee, t.Prize, t.Status,
	).Scan(&t.ID, &t.CreatedAt)
	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `, u.id, u.username
		FROM tournaments t
		JOIN users u ON u.id = t.organizer_id
		WHERE t.id = $1`

	t := &models.Tournament{Organizer: &models.User{}}
	targets := append(tournamentScanTargets(t), &t.Organizer.ID, &t.Organizer.Username)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(targets...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}

	if t.CourtID != nil {
		c := &models.Court{}
		err := r.db.QueryRowContext(ctx, `SELECT id, name, address, city FROM courts WHERE id = $1`, *t.CourtID).
			Scan(&c.ID, &c.Name, &c.Address, &c.City)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to load court of tournament %d: %w", id, err)
		}
		if err == nil {
			t.Court = c
		}
	}

	teams, err := r.teams(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Teams = teams
	t.TeamCount = len(teams)
	return t, nil
}

func (r *postgresTournamentRepository) teams(ctx context.Context, tournamentID int) ([]models.Team, error) {
	query := `
		SELECT tm.id, tm.name, tm.city, tm.captain_id, tm.logo_key, tm.average_rating, tm.rating_count, tm.created_at
		FROM tournament_teams tt
		JOIN teams tm ON tm.id = tt.team_id
		WHERE tt.tournament_id = $1
		ORDER BY tt.joined_at`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var tm models.Team
		if err := rows.Scan(&tm.ID, &tm.Name, &tm.City, &tm.CaptainID, &tm.LogoKey, &tm.AverageRating, &tm.RatingCount, &tm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament team: %w", err)
		}
		teams = append(teams, tm)
	}
	return teams, rows.Err()
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `,
		       (SELECT COUNT(*) FROM tournament_teams tt WHERE tt.tournament_id = t.id)
		FROM tournaments t`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE t.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY t.start_date`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(append(tournamentScanTargets(&t), &t.TeamCount)...); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1, description = $2, court_id = $3, start_date = $4, end_date = $5,
			max_teams = $6, entry_fee = $7, prize = $8, status = $9
		WHERE id = $10`
	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.CourtID, t.StartDate, t.EndDate,
		t.MaxTeams, t.EntryFee, t.Prize, t.Status, t.ID)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1 FOR UPDATE`
	t := &models.Tournament{}
	if err := executor(r.db, exec).QueryRowContext(ctx, query, id).Scan(tournamentScanTargets(t)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to lock tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) CountTeams(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	var n int
	err := executor(r.db, exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_teams WHERE tournament_id = $1`, tournamentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams of tournament %d: %w", tournamentID, err)
	}
	return n, nil
}

func (r *postgresTournamentRepository) AddTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) error {
	_, err := executor(r.db, exec).ExecContext(ctx,
		`INSERT INTO tournament_teams (tournament_id, team_id) VALUES ($1, $2)`, tournamentID, teamID)
	if err != nil {
		if isUniqueViolation(err, "tournament_teams_pkey") {
			return ErrTeamAlreadyRegistered
		}
		if isForeignKeyViolation(err) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to register team %d for tournament %d: %w", teamID, tournamentID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) RemoveTeam(ctx context.Context, tournamentID, teamID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tournament_teams WHERE tournament_id = $1 AND team_id = $2`, tournamentID, teamID)
	if err != nil {
		return fmt.Errorf("failed to withdraw team %d from tournament %d: %w", teamID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrTeamNotRegistered)
}

// CountByMember counts distinct tournaments the user entered through any team.
func (r *postgresTournamentRepository) CountByMember(ctx context.Context, userID int) (int, error) {
	query := `
		SELECT COUNT(DISTINCT tt.tournament_id)
		FROM tournament_teams tt
		JOIN team_members tm ON tm.team_id = tt.team_id
		JOIN tournaments t ON t.id = tt.tournament_id
		WHERE tm.user_id = $1 AND t.status <> 'cancelled'`
	var n int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tournaments of user %d: %w", userID, err)
	}
	return n, nil
}

// UpdateStatusesByDates moves upcoming tournaments to ongoing once started and
// ongoing ones to completed once their end date passed.
func (r *postgresTournamentRepository) UpdateStatusesByDates(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE tournaments SET status = CASE
			WHEN end_date < $1 THEN 'completed'
			ELSE 'ongoing'
		END
		WHERE (status = 'upcoming' AND start_date <= $1)
		   OR (status = 'ongoing' AND end_date < $1)`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to update tournament statuses: %w", err)
	}
	return result.RowsAffected()
}
