package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/meetbasket/brackets"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/jonboulle/clockwork"
)

const defaultTournamentMaxTeams = 8

type TournamentService interface {
	ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	CreateTournament(ctx context.Context, input TournamentInput, organizerID int) (*models.Tournament, error)
	UpdateTournament(ctx context.Context, id, currentUserID int, input UpdateTournamentInput) (*models.Tournament, error)
	JoinTournament(ctx context.Context, tournamentID, teamID, currentUserID int) error
	LeaveTournament(ctx context.Context, tournamentID, teamID, currentUserID int) error
	GetBracket(ctx context.Context, tournamentID int, format brackets.Format) ([]brackets.Match, error)
	AutoUpdateTournamentStatusesByDates(ctx context.Context) error
}

type TournamentInput struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CourtID     *int      `json:"court_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	MaxTeams    int       `json:"max_teams"`
	EntryFee    float64   `json:"entry_fee"`
	Prize       *string   `json:"prize"`
}

type UpdateTournamentInput struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	CourtID     *int                     `json:"court_id"`
	StartDate   *time.Time               `json:"start_date"`
	EndDate     *time.Time               `json:"end_date"`
	MaxTeams    *int                     `json:"max_teams"`
	EntryFee    *float64                 `json:"entry_fee"`
	Prize       *string                  `json:"prize"`
	Status      *models.TournamentStatus `json:"status"`
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	tx             repositories.Transactor
	clock          clockwork.Clock
	logger         *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	tx repositories.Transactor,
	clock clockwork.Clock,
	logger *slog.Logger,
) TournamentService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		tx:             tx,
		clock:          clock,
		logger:         logger,
	}
}

func (s *tournamentService) ListTournaments(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status '%s'", ErrValidationFailed, *status)
	}
	list, err := s.tournamentRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return list, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, input TournamentInput, organizerID int) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date and end_date are required", ErrValidationFailed)
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, ErrTournamentDates
	}
	if input.MaxTeams == 0 {
		input.MaxTeams = defaultTournamentMaxTeams
	}
	if input.MaxTeams < 2 || input.EntryFee < 0 {
		return nil, fmt.Errorf("%w: max_teams must be at least 2 and entry_fee not negative", ErrValidationFailed)
	}

	t := &models.Tournament{
		Name:        name,
		Description: trimmedOrNil(input.Description),
		OrganizerID: organizerID,
		CourtID:     input.CourtID,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		MaxTeams:    input.MaxTeams,
		EntryFee:    input.EntryFee,
		Prize:       trimmedOrNil(input.Prize),
		Status:      models.TournamentUpcoming,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, mapTournamentError(err)
	}
	return t, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id, currentUserID int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != currentUserID {
		return nil, ErrOrganizerOnly
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tournament name cannot be empty", ErrValidationFailed)
		}
		t.Name = name
	}
	if input.Description != nil {
		t.Description = trimmedOrNil(input.Description)
	}
	if input.CourtID != nil {
		t.CourtID = input.CourtID
	}
	if input.StartDate != nil {
		t.StartDate = *input.StartDate
	}
	if input.EndDate != nil {
		t.EndDate = *input.EndDate
	}
	if input.MaxTeams != nil {
		if *input.MaxTeams < 2 || *input.MaxTeams < t.TeamCount {
			return nil, fmt.Errorf("%w: max_teams must be at least 2 and cover registered teams", ErrValidationFailed)
		}
		t.MaxTeams = *input.MaxTeams
	}
	if input.EntryFee != nil {
		if *input.EntryFee < 0 {
			return nil, fmt.Errorf("%w: entry_fee must not be negative", ErrValidationFailed)
		}
		t.EntryFee = *input.EntryFee
	}
	if input.Prize != nil {
		t.Prize = trimmedOrNil(input.Prize)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status '%s'", ErrValidationFailed, *input.Status)
		}
		t.Status = *input.Status
	}
	if t.EndDate.Before(t.StartDate) {
		return nil, ErrTournamentDates
	}

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		return nil, mapTournamentError(err)
	}
	return s.GetTournament(ctx, id)
}

// JoinTournament registers a team. Only its captain may do so, and only while
// the tournament is upcoming and has a free slot.
func (s *tournamentService) JoinTournament(ctx context.Context, tournamentID, teamID, currentUserID int) error {
	if err := s.requireCaptain(ctx, teamID, currentUserID); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.LockForUpdate(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if t.Status != models.TournamentUpcoming {
			return ErrTournamentClosed
		}
		registered, err := s.tournamentRepo.CountTeams(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if registered >= t.MaxTeams {
			return ErrTournamentFull
		}
		return s.tournamentRepo.AddTeam(ctx, exec, tournamentID, teamID)
	})
	if err != nil {
		if isAny(err, ErrTournamentClosed, ErrTournamentFull) {
			return err
		}
		return mapTournamentError(err)
	}
	return nil
}

func (s *tournamentService) LeaveTournament(ctx context.Context, tournamentID, teamID, currentUserID int) error {
	if err := s.requireCaptain(ctx, teamID, currentUserID); err != nil {
		return err
	}
	if err := s.tournamentRepo.RemoveTeam(ctx, tournamentID, teamID); err != nil {
		return mapTournamentError(err)
	}
	return nil
}

// GetBracket строит сетку по зарегистрированным командам в порядке регистрации.
func (s *tournamentService) GetBracket(ctx context.Context, tournamentID int, format brackets.Format) ([]brackets.Match, error) {
	generator, err := brackets.ForFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	t, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	teamIDs := make([]int, 0, len(t.Teams))
	for _, team := range t.Teams {
		teamIDs = append(teamIDs, team.ID)
	}
	matches, err := generator.Generate(teamIDs)
	if errors.Is(err, brackets.ErrNotEnoughTeams) {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return matches, err
}

func (s *tournamentService) requireCaptain(ctx context.Context, teamID, userID int) error {
	if teamID <= 0 {
		return fmt.Errorf("%w: team_id is required", ErrValidationFailed)
	}
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.CaptainID != userID {
		return ErrCaptainActionForbidden
	}
	return nil
}

// AutoUpdateTournamentStatusesByDates moves tournaments along upcoming ->
// ongoing -> completed as their dates pass. Cancelled ones are left alone.
func (s *tournamentService) AutoUpdateTournamentStatusesByDates(ctx context.Context) error {
	updated, err := s.tournamentRepo.UpdateStatusesByDates(ctx, s.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to update tournament statuses: %w", err)
	}
	if updated > 0 {
		s.logger.InfoContext(ctx, "tournament statuses updated", slog.Int64("count", updated))
	}
	return nil
}

func mapTournamentError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentDatesInvalid):
		return ErrTournamentDates
	case errors.Is(err, repositories.ErrTournamentInvalidRef):
		return fmt.Errorf("%w: court does not exist", ErrValidationFailed)
	case errors.Is(err, repositories.ErrTeamAlreadyRegistered):
		return ErrTeamAlreadyRegistered
	case errors.Is(err, repositories.ErrTeamNotRegistered):
		return ErrTeamNotRegistered
	}
	return fmt.Errorf("tournament operation failed: %w", err)
}
