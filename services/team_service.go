package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/Dosada05/meetbasket/storage"
)

const teamLogosFolder = "teams"

type TeamService interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id int) (*models.Team, error)
	CreateTeam(ctx context.Context, input CreateTeamInput, captainID int) (*models.Team, error)
	UpdateTeam(ctx context.Context, teamID, currentUserID int, input UpdateTeamInput) (*models.Team, error)
	UploadTeamLogo(ctx context.Context, teamID, currentUserID int, file io.Reader, contentType string) (*models.Team, error)
}

type CreateTeamInput struct {
	Name        string  `json:"name"`
	City        *string `json:"city"`
	Description *string `json:"description"`
}

// UpdateTeamInput changes only the fields that are set. MemberIDs, when
// present, replaces the whole roster; the captain always stays on it.
type UpdateTeamInput struct {
	Name        *string `json:"name"`
	City        *string `json:"city"`
	Description *string `json:"description"`
	CaptainID   *int    `json:"captain_id"`
	MemberIDs   *[]int  `json:"member_ids"`
}

type teamService struct {
	teamRepo repositories.TeamRepository
	tx       repositories.Transactor
	uploader storage.FileUploader
}

func NewTeamService(teamRepo repositories.TeamRepository, tx repositories.Transactor, uploader storage.FileUploader) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		tx:       tx,
		uploader: uploader,
	}
}

func (s *teamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	for i := range teams {
		populateTeamLogoURL(&teams[i], s.uploader)
	}
	return teams, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput, captainID int) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	team := &models.Team{
		Name:        name,
		City:        trimmedOrNil(input.City),
		Description: trimmedOrNil(input.Description),
		CaptainID:   captainID,
	}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.teamRepo.Create(ctx, exec, team)
	})
	if err != nil {
		return nil, mapTeamError(err)
	}
	return team, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID, currentUserID int, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: team name cannot be empty", ErrValidationFailed)
		}
		team.Name = name
	}
	if input.City != nil {
		team.City = trimmedOrNil(input.City)
	}
	if input.Description != nil {
		team.Description = trimmedOrNil(input.Description)
	}
	if input.CaptainID != nil {
		team.CaptainID = *input.CaptainID
	}

	var roster []int
	if input.MemberIDs != nil {
		roster = rosterWithCaptain(*input.MemberIDs, team.CaptainID)
	} else if input.CaptainID != nil && !team.HasMember(team.CaptainID) {
		return nil, fmt.Errorf("%w: new captain must be a team member", ErrValidationFailed)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Update(ctx, exec, team); err != nil {
			return err
		}
		if roster == nil {
			return nil
		}
		return s.teamRepo.ReplaceMembers(ctx, exec, teamID, roster)
	})
	if err != nil {
		return nil, mapTeamError(err)
	}
	return s.GetTeam(ctx, teamID)
}

// rosterWithCaptain dedups ids in order and makes sure the captain is first.
func rosterWithCaptain(ids []int, captainID int) []int {
	seen := map[int]bool{captainID: true}
	roster := []int{captainID}
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		roster = append(roster, id)
	}
	return roster
}

func (s *teamService) UploadTeamLogo(ctx context.Context, teamID, currentUserID int, file io.Reader, contentType string) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	if team.CaptainID != currentUserID {
		return nil, ErrCaptainActionForbidden
	}

	key, err := uploadImage(ctx, s.uploader, teamLogosFolder, teamID, contentType, file)
	if err != nil {
		return nil, err
	}
	oldKey := team.LogoKey
	if err := s.teamRepo.UpdateLogoKey(ctx, teamID, &key); err != nil {
		_ = s.uploader.Delete(ctx, key)
		return nil, fmt.Errorf("failed to save team logo: %w", err)
	}
	_ = deleteObject(ctx, s.uploader, oldKey)

	team.LogoKey = &key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func mapTeamError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamMemberNotFound):
		return fmt.Errorf("%w: unknown team member", ErrUserNotFound)
	}
	return fmt.Errorf("team operation failed: %w", err)
}
