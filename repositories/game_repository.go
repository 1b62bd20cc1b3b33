package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/stats"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound         = errors.New("game not found")
	ErrGameCourtInvalid     = errors.New("game court reference invalid")
	ErrAlreadyJoined        = errors.New("user already joined this game")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrParticipantTeamCheck = errors.New("participant team reference invalid")
)

type GameFilter struct {
	From          *time.Time // scheduled_at >= From
	Before        *time.Time // scheduled_at < Before
	OrganizerID   *int
	ParticipantID *int
	CourtID       *int
	Newest        bool
	Limit         int
}

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id int) (*models.Game, error)
	List(ctx context.Context, filter GameFilter) ([]models.Game, error)
	Delete(ctx context.Context, id int) error

	LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	CountParticipants(ctx context.Context, exec SQLExecutor, gameID int) (int, error)
	AddParticipant(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	RemoveParticipant(ctx context.Context, gameID, userID int) error
	SetParticipantTeam(ctx context.Context, exec SQLExecutor, gameID, userID int, teamID *int) error
	UpsertStat(ctx context.Context, exec SQLExecutor, stat *models.PlayerStat) error
	SaveResult(ctx context.Context, exec SQLExecutor, gameID int, result models.GameResult, score models.Score) error

	ListHistory(ctx context.Context, userID int, until time.Time) ([]stats.Participation, error)
	CountOrganizedBy(ctx context.Context, userID int) (int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

const gameColumns = `
	g.id, g.title, g.description, g.court_id, g.organizer_id, g.scheduled_at, g.duration_minutes,
	g.max_players, g.skill_level, g.team_a_id, g.team_b_id, g.result, g.score, g.status, g.created_at`

func gameScanTargets(g *models.Game) []any {
	return []any{
		&g.ID, &g.Title, &g.Description, &g.CourtID, &g.OrganizerID, &g.ScheduledAt, &g.DurationMinutes,
		&g.MaxPlayers, &g.SkillLevel, &g.TeamAID, &g.TeamBID, &g.Result, &g.Score, &g.Status, &g.CreatedAt,
	}
}

func (r *postgresGameRepository) Create(ctx context.Context, g *models.Game) error {
	query := `
		INSERT INTO games (title, description, court_id, organizer_id, scheduled_at, duration_minutes,
		                   max_players, skill_level, team_a_id, team_b_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	if g.Status == "" {
		g.Status = models.GameStatusScheduled
	}
	err := r.db.QueryRowContext(ctx, query,
		g.Title, g.Description, g.CourtID, g.OrganizerID, g.ScheduledAt, g.DurationMinutes,
		g.MaxPlayers, g.SkillLevel, g.TeamAID, g.TeamBID, g.Status,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrGameCourtInvalid
		}
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `,
		       c.id, c.name, c.address, c.city, c.latitude, c.longitude,
		       u.id, u.username
		FROM games g
		JOIN courts c ON c.id = g.court_id
		JOIN users u ON u.id = g.organizer_id
		WHERE g.id = $1`

	g := &models.Game{Court: &models.Court{}, Organizer: &models.User{}}
	targets := append(gameScanTargets(g),
		&g.Court.ID, &g.Court.Name, &g.Court.Address, &g.Court.City, &g.Court.Latitude, &g.Court.Longitude,
		&g.Organizer.ID, &g.Organizer.Username,
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(targets...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %d: %w", id, err)
	}

	participants, err := r.participantsFor(ctx, []int{g.ID})
	if err != nil {
		return nil, err
	}
	g.Participants = participants[g.ID]

	if g.TeamA, err = r.teamStub(ctx, g.TeamAID); err != nil {
		return nil, err
	}
	if g.TeamB, err = r.teamStub(ctx, g.TeamBID); err != nil {
		return nil, err
	}

	if g.Stats, err = r.statsFor(ctx, g.ID); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *postgresGameRepository) teamStub(ctx context.Context, teamID *int) (*models.Team, error) {
	if teamID == nil {
		return nil, nil
	}
	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, captain_id FROM teams WHERE id = $1`, *teamID).
		Scan(&t.ID, &t.Name, &t.CaptainID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load team %d: %w", *teamID, err)
	}
	return t, nil
}

func (r *postgresGameRepository) statsFor(ctx context.Context, gameID int) ([]models.PlayerStat, error) {
	query := `
		SELECT game_id, user_id, points, rebounds, assists, steals, blocks, free_throws_made, free_throws_attempted
		FROM player_stats WHERE game_id = $1 ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for game %d: %w", gameID, err)
	}
	defer rows.Close()

	out := make([]models.PlayerStat, 0)
	for rows.Next() {
		var s models.PlayerStat
		if err := rows.Scan(&s.GameID, &s.UserID, &s.Points, &s.Rebounds, &s.Assists, &s.Steals, &s.Blocks,
			&s.FreeThrowsMade, &s.FreeThrowsAttempted); err != nil {
			return nil, fmt.Errorf("failed to scan stat row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// participantsFor loads participants of the given games, each slice in join order.
func (r *postgresGameRepository) participantsFor(ctx context.Context, gameIDs []int) (map[int][]models.Participant, error) {
	out := make(map[int][]models.Participant, len(gameIDs))
	if len(gameIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT gp.game_id, gp.user_id, gp.team_id, u.username, gp.joined_at
		FROM game_participants gp
		JOIN users u ON u.id = gp.user_id
		WHERE gp.game_id = ANY($1)
		ORDER BY gp.game_id, gp.joined_at, gp.id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(gameIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.GameID, &p.UserID, &p.TeamID, &p.Username, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		out[p.GameID] = append(out[p.GameID], p)
	}
	return out, rows.Err()
}

func (r *postgresGameRepository) List(ctx context.Context, filter GameFilter) ([]models.Game, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.From != nil {
		add("g.scheduled_at >= $%d", *filter.From)
	}
	if filter.Before != nil {
		add("g.scheduled_at < $%d", *filter.Before)
	}
	if filter.OrganizerID != nil {
		add("g.organizer_id = $%d", *filter.OrganizerID)
	}
	if filter.ParticipantID != nil {
		add("EXISTS (SELECT 1 FROM game_participants p WHERE p.game_id = g.id AND p.user_id = $%d)", *filter.ParticipantID)
	}
	if filter.CourtID != nil {
		add("g.court_id = $%d", *filter.CourtID)
	}

	query := `
		SELECT ` + gameColumns + `,
		       c.id, c.name, c.address, c.city, c.latitude, c.longitude,
		       u.id, u.username
		FROM games g
		JOIN courts c ON c.id = g.court_id
		JOIN users u ON u.id = g.organizer_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if filter.Newest {
		query += " ORDER BY g.scheduled_at DESC, g.id DESC"
	} else {
		query += " ORDER BY g.scheduled_at ASC, g.id ASC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := make([]models.Game, 0)
	ids := make([]int, 0)
	for rows.Next() {
		g := models.Game{Court: &models.Court{}, Organizer: &models.User{}}
		targets := append(gameScanTargets(&g),
			&g.Court.ID, &g.Court.Name, &g.Court.Address, &g.Court.City, &g.Court.Latitude, &g.Court.Longitude,
			&g.Organizer.ID, &g.Organizer.Username,
		)
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game rows: %w", err)
	}

	participants, err := r.participantsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range games {
		games[i].Participants = participants[games[i].ID]
	}
	return games, nil
}

func (r *postgresGameRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.id = $1 FOR UPDATE`
	g := &models.Game{}
	if err := executor(r.db, exec).QueryRowContext(ctx, query, id).Scan(gameScanTargets(g)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to lock game %d: %w", id, err)
	}
	return g, nil
}

func (r *postgresGameRepository) CountParticipants(ctx context.Context, exec SQLExecutor, gameID int) (int, error) {
	var n int
	err := executor(r.db, exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_participants WHERE game_id = $1`, gameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants of game %d: %w", gameID, err)
	}
	return n, nil
}

func (r *postgresGameRepository) AddParticipant(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO game_participants (game_id, user_id, team_id)
		VALUES ($1, $2, $3)
		RETURNING joined_at`
	err := executor(r.db, exec).QueryRowContext(ctx, query, p.GameID, p.UserID, p.TeamID).Scan(&p.JoinedAt)
	if err != nil {
		if isUniqueViolation(err, "game_participants_game_user_key") {
			return ErrAlreadyJoined
		}
		if isForeignKeyViolation(err) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to add participant to game %d: %w", p.GameID, err)
	}
	return nil
}

func (r *postgresGameRepository) RemoveParticipant(ctx context.Context, gameID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM game_participants WHERE game_id = $1 AND user_id = $2`, gameID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove participant from game %d: %w", gameID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresGameRepository) SetParticipantTeam(ctx context.Context, exec SQLExecutor, gameID, userID int, teamID *int) error {
	result, err := executor(r.db, exec).ExecContext(ctx,
		`UPDATE game_participants SET team_id = $1 WHERE game_id = $2 AND user_id = $3`, teamID, gameID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrParticipantTeamCheck
		}
		return fmt.Errorf("failed to set team of participant %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresGameRepository) UpsertStat(ctx context.Context, exec SQLExecutor, s *models.PlayerStat) error {
	query := `
		INSERT INTO player_stats (game_id, user_id, points, rebounds, assists, steals, blocks,
		                          free_throws_made, free_throws_attempted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (game_id, user_id) DO UPDATE SET
			points = EXCLUDED.points,
			rebounds = EXCLUDED.rebounds,
			assists = EXCLUDED.assists,
			steals = EXCLUDED.steals,
			blocks = EXCLUDED.blocks,
			free_throws_made = EXCLUDED.free_throws_made,
			free_throws_attempted = EXCLUDED.free_throws_attempted`

	_, err := executor(r.db, exec).ExecContext(ctx, query,
		s.GameID, s.UserID, s.Points, s.Rebounds, s.Assists, s.Steals, s.Blocks,
		s.FreeThrowsMade, s.FreeThrowsAttempted,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to save stats of user %d in game %d: %w", s.UserID, s.GameID, err)
	}
	return nil
}

func (r *postgresGameRepository) SaveResult(ctx context.Context, exec SQLExecutor, gameID int, result models.GameResult, score models.Score) error {
	res, err := executor(r.db, exec).ExecContext(ctx,
		`UPDATE games SET result = $1, score = $2, status = $3 WHERE id = $4`,
		result, score, models.GameStatusCompleted, gameID)
	if err != nil {
		return fmt.Errorf("failed to save result of game %d: %w", gameID, err)
	}
	return checkAffectedRows(res, ErrGameNotFound)
}

// ListHistory returns every non-cancelled game the user took part in that was
// scheduled before until, oldest first, each with the user's own stat row.
func (r *postgresGameRepository) ListHistory(ctx context.Context, userID int, until time.Time) ([]stats.Participation, error) {
	query := `
		SELECT g.id, g.title, g.court_id, g.scheduled_at, g.team_a_id, g.team_b_id, g.result, g.score, g.status,
		       c.name,
		       gp.team_id, gp.joined_at,
		       ps.user_id, ps.points, ps.rebounds, ps.assists, ps.steals, ps.blocks,
		       ps.free_throws_made, ps.free_throws_attempted
		FROM game_participants gp
		JOIN games g ON g.id = gp.game_id
		JOIN courts c ON c.id = g.court_id
		LEFT JOIN player_stats ps ON ps.game_id = gp.game_id AND ps.user_id = gp.user_id
		WHERE gp.user_id = $1 AND g.status <> 'cancelled' AND g.scheduled_at <= $2
		ORDER BY g.scheduled_at, g.id`

	rows, err := r.db.QueryContext(ctx, query, userID, until)
	if err != nil {
		return nil, fmt.Errorf("failed to load history of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]stats.Participation, 0)
	for rows.Next() {
		var (
			p        stats.Participation
			court    models.Court
			statUser sql.NullInt64
			s        models.PlayerStat
		)
		g := &p.Game
		if err := rows.Scan(
			&g.ID, &g.Title, &g.CourtID, &g.ScheduledAt, &g.TeamAID, &g.TeamBID, &g.Result, &g.Score, &g.Status,
			&court.Name,
			&p.Participant.TeamID, &p.Participant.JoinedAt,
			&statUser, &s.Points, &s.Rebounds, &s.Assists, &s.Steals, &s.Blocks,
			&s.FreeThrowsMade, &s.FreeThrowsAttempted,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		court.ID = g.CourtID
		g.Court = &court
		p.Participant.GameID = g.ID
		p.Participant.UserID = userID
		if statUser.Valid {
			s.GameID = g.ID
			s.UserID = userID
			p.Stat = &s
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresGameRepository) CountOrganizedBy(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE organizer_id = $1 AND status <> 'cancelled'`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count games organized by %d: %w", userID, err)
	}
	return n, nil
}
