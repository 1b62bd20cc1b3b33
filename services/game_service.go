package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/meetbasket/cache"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/jonboulle/clockwork"
)

const (
	defaultGameDuration   = 90
	defaultGameMaxPlayers = 10
	minGamePlayers        = 2
)

type GameTab string

const (
	GameTabUpcoming  GameTab = "upcoming"
	GameTabPast      GameTab = "past"
	GameTabOrganized GameTab = "organized"
	GameTabJoined    GameTab = "joined"
)

type GameService interface {
	ListGames(ctx context.Context, query GameListQuery) ([]models.GameListItem, error)
	GetGame(ctx context.Context, id int) (*models.Game, error)
	CreateGame(ctx context.Context, input CreateGameInput, organizerID int) (*models.Game, error)
	JoinGame(ctx context.Context, gameID, userID int, teamID *int) (*models.Participant, error)
	LeaveGame(ctx context.Context, gameID, userID int) error
	DeleteGame(ctx context.Context, gameID, currentUserID int) error
	SaveResult(ctx context.Context, gameID, currentUserID int, input GameResultInput) (*models.Game, error)
}

type GameListQuery struct {
	Tab           GameTab
	CourtID       *int
	CurrentUserID int // 0 for anonymous requests
}

type CreateGameInput struct {
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	CourtID         int       `json:"court_id"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	MaxPlayers      int       `json:"max_players"`
	SkillLevel      *string   `json:"skill_level"`
	TeamAID         *int      `json:"team_a_id"`
	TeamBID         *int      `json:"team_b_id"`
}

type GameResultInput struct {
	Result string         `json:"result"`
	Score  models.Score   `json:"score"`
	Stats  []PlayerResult `json:"stats"`
}

// PlayerResult is one participant's side and stat line in a result submission.
type PlayerResult struct {
	UserID              int  `json:"user_id"`
	TeamID              *int `json:"team_id"`
	Points              *int `json:"points"`
	Rebounds            *int `json:"rebounds"`
	Assists             *int `json:"assists"`
	Steals              *int `json:"steals"`
	Blocks              *int `json:"blocks"`
	FreeThrowsMade      *int `json:"free_throws_made"`
	FreeThrowsAttempted *int `json:"free_throws_attempted"`
}

type gameService struct {
	gameRepo    repositories.GameRepository
	tx          repositories.Transactor
	cache       *cache.Cache
	invalidator *Invalidator
	clock       clockwork.Clock
}

func NewGameService(
	gameRepo repositories.GameRepository,
	tx repositories.Transactor,
	c *cache.Cache,
	invalidator *Invalidator,
	clock clockwork.Clock,
) GameService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &gameService{
		gameRepo:    gameRepo,
		tx:          tx,
		cache:       c,
		invalidator: invalidator,
		clock:       clock,
	}
}

func (s *gameService) ListGames(ctx context.Context, query GameListQuery) ([]models.GameListItem, error) {
	now := s.clock.Now()
	filter := repositories.GameFilter{CourtID: query.CourtID}

	switch query.Tab {
	case "", GameTabUpcoming:
		filter.From = &now
	case GameTabPast:
		filter.Before = &now
		filter.Newest = true
	case GameTabOrganized:
		if query.CurrentUserID == 0 {
			return nil, ErrAuthenticationFailed
		}
		if query.CourtID == nil {
			return s.organizedGames(ctx, query.CurrentUserID)
		}
		filter.OrganizerID = &query.CurrentUserID
	case GameTabJoined:
		if query.CurrentUserID == 0 {
			return nil, ErrAuthenticationFailed
		}
		filter.ParticipantID = &query.CurrentUserID
	default:
		return nil, fmt.Errorf("%w: unknown tab '%s'", ErrValidationFailed, query.Tab)
	}

	return s.listItems(ctx, filter)
}

// organizedGames serves the organizer's own list from the cache.
func (s *gameService) organizedGames(ctx context.Context, organizerID int) ([]models.GameListItem, error) {
	return cache.GetOrLoad(ctx, s.cache, organizerGamesEntry(organizerID), func(ctx context.Context) ([]models.GameListItem, error) {
		return s.listItems(ctx, repositories.GameFilter{OrganizerID: &organizerID})
	})
}

func (s *gameService) listItems(ctx context.Context, filter repositories.GameFilter) ([]models.GameListItem, error) {
	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	items := make([]models.GameListItem, 0, len(games))
	for i := range games {
		items = append(items, BuildGameListItem(&games[i]))
	}
	return items, nil
}

// BuildGameListItem flattens a game with its participants into the list shape.
// Player names keep join order.
func BuildGameListItem(g *models.Game) models.GameListItem {
	names := make([]string, 0, len(g.Participants))
	for _, p := range g.Participants {
		names = append(names, p.Username)
	}

	item := models.GameListItem{
		ID:              g.ID,
		Title:           g.Title,
		Court:           g.Court,
		ScheduledAt:     g.ScheduledAt,
		DurationMinutes: g.DurationMinutes,
		SkillLevel:      g.SkillLevel,
		OrganizerID:     g.OrganizerID,
		Players: models.GamePlayers{
			Joined: len(g.Participants),
			Max:    g.MaxPlayers,
			Names:  names,
		},
		IsFull:       g.MaxPlayers > 0 && len(g.Participants) >= g.MaxPlayers,
		Result:       g.Result,
		Score:        g.Score,
		ScoreDisplay: g.Score.Format(),
		Status:       g.Status,
	}
	if g.Organizer != nil {
		item.Organizer = g.Organizer.DisplayName()
	}
	return item
}

func (s *gameService) GetGame(ctx context.Context, id int) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return game, nil
}

func (s *gameService) CreateGame(ctx context.Context, input CreateGameInput, organizerID int) (*models.Game, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.CourtID <= 0 {
		return nil, fmt.Errorf("%w: title and court_id are required", ErrValidationFailed)
	}
	if input.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("%w: scheduled_at is required", ErrValidationFailed)
	}
	if input.ScheduledAt.Before(s.clock.Now()) {
		return nil, ErrGameInPast
	}
	if input.DurationMinutes == 0 {
		input.DurationMinutes = defaultGameDuration
	}
	if input.MaxPlayers == 0 {
		input.MaxPlayers = defaultGameMaxPlayers
	}
	if input.DurationMinutes < 0 || input.MaxPlayers < minGamePlayers {
		return nil, fmt.Errorf("%w: duration must be positive and at least %d players are required", ErrValidationFailed, minGamePlayers)
	}
	if input.TeamAID != nil && input.TeamBID != nil && *input.TeamAID == *input.TeamBID {
		return nil, fmt.Errorf("%w: a team cannot play against itself", ErrValidationFailed)
	}

	game := &models.Game{
		Title:           title,
		Description:     trimmedOrNil(input.Description),
		CourtID:         input.CourtID,
		OrganizerID:     organizerID,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: input.DurationMinutes,
		MaxPlayers:      input.MaxPlayers,
		SkillLevel:      trimmedOrNil(input.SkillLevel),
		TeamAID:         input.TeamAID,
		TeamBID:         input.TeamBID,
		Status:          models.GameStatusScheduled,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGameCourtInvalid) {
			return nil, fmt.Errorf("%w: court or team does not exist", ErrValidationFailed)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	s.invalidator.Apply(ctx, GameCreated, organizerID)
	return game, nil
}

// JoinGame adds the user under the game's row lock, so the capacity check and
// the insert cannot interleave with another join.
func (s *gameService) JoinGame(ctx context.Context, gameID, userID int, teamID *int) (*models.Participant, error) {
	participant := &models.Participant{GameID: gameID, UserID: userID, TeamID: teamID}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		game, err := s.gameRepo.LockForUpdate(ctx, exec, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.GameStatusScheduled {
			return ErrGameNotOpen
		}
		if teamID != nil && !game.HasTeam(*teamID) {
			return ErrInvalidTeamSide
		}

		joined, err := s.gameRepo.CountParticipants(ctx, exec, gameID)
		if err != nil {
			return err
		}
		if joined >= game.MaxPlayers {
			return ErrGameFull
		}
		return s.gameRepo.AddParticipant(ctx, exec, participant)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNotFound):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrAlreadyJoined):
			return nil, ErrAlreadyJoined
		case isAny(err, ErrGameNotOpen, ErrInvalidTeamSide, ErrGameFull):
			return nil, err
		}
		return nil, fmt.Errorf("failed to join game %d: %w", gameID, err)
	}

	s.invalidator.Apply(ctx, GameJoined, userID)
	return participant, nil
}

func (s *gameService) LeaveGame(ctx context.Context, gameID, userID int) error {
	if err := s.gameRepo.RemoveParticipant(ctx, gameID, userID); err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("failed to leave game %d: %w", gameID, err)
	}
	s.invalidator.Apply(ctx, GameLeft, userID)
	return nil
}

func (s *gameService) DeleteGame(ctx context.Context, gameID, currentUserID int) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.OrganizerID != currentUserID {
		return ErrOrganizerOnly
	}
	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return ErrGameNotFound
		}
		return fmt.Errorf("failed to delete game %d: %w", gameID, err)
	}
	s.invalidator.Apply(ctx, GameDeleted, game.OrganizerID)
	return nil
}

// SaveResult records the outcome, the score and per-player lines in one
// transaction. Every team assignment must name one of the game's two sides.
func (s *gameService) SaveResult(ctx context.Context, gameID, currentUserID int, input GameResultInput) (*models.Game, error) {
	result, err := models.ParseGameResult(input.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGameResult, input.Result)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		game, err := s.gameRepo.LockForUpdate(ctx, exec, gameID)
		if err != nil {
			return err
		}
		if game.OrganizerID != currentUserID {
			return ErrOrganizerOnly
		}
		if game.Status == models.GameStatusCancelled {
			return ErrGameNotOpen
		}

		for _, line := range input.Stats {
			if line.TeamID != nil && !game.HasTeam(*line.TeamID) {
				return ErrInvalidTeamSide
			}
			if err := s.gameRepo.SetParticipantTeam(ctx, exec, gameID, line.UserID, line.TeamID); err != nil {
				return err
			}
			stat := &models.PlayerStat{
				GameID:              gameID,
				UserID:              line.UserID,
				Points:              line.Points,
				Rebounds:            line.Rebounds,
				Assists:             line.Assists,
				Steals:              line.Steals,
				Blocks:              line.Blocks,
				FreeThrowsMade:      line.FreeThrowsMade,
				FreeThrowsAttempted: line.FreeThrowsAttempted,
			}
			if err := s.gameRepo.UpsertStat(ctx, exec, stat); err != nil {
				return err
			}
		}
		return s.gameRepo.SaveResult(ctx, exec, gameID, result, input.Score)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNotFound):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrParticipantNotFound):
			return nil, ErrNotParticipant
		case errors.Is(err, repositories.ErrParticipantTeamCheck):
			return nil, ErrInvalidTeamSide
		case isAny(err, ErrOrganizerOnly, ErrGameNotOpen, ErrInvalidTeamSide):
			return nil, err
		}
		return nil, fmt.Errorf("failed to save result of game %d: %w", gameID, err)
	}

	s.invalidator.Apply(ctx, GameResultSaved, currentUserID)
	return s.GetGame(ctx, gameID)
}
