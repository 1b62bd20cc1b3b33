package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/meetbasket/brackets"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTournamentRepo struct {
	repositories.TournamentRepository

	tournament *models.Tournament
}

func (r *memoryTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	if r.tournament == nil || r.tournament.ID != id {
		return nil, repositories.ErrTournamentNotFound
	}
	t := *r.tournament
	t.TeamCount = len(t.Teams)
	return &t, nil
}

func (r *memoryTournamentRepo) LockForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTournamentRepo) CountTeams(context.Context, repositories.SQLExecutor, int) (int, error) {
	return len(r.tournament.Teams), nil
}

func (r *memoryTournamentRepo) AddTeam(_ context.Context, _ repositories.SQLExecutor, _ int, teamID int) error {
	for _, team := range r.tournament.Teams {
		if team.ID == teamID {
			return repositories.ErrTeamAlreadyRegistered
		}
	}
	r.tournament.Teams = append(r.tournament.Teams, models.Team{ID: teamID})
	return nil
}

type captainTeamRepo struct {
	repositories.TeamRepository
}

// команда с ID n принадлежит капитану с ID n
func (r *captainTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	if id > 100 {
		return nil, repositories.ErrTeamNotFound
	}
	return &models.Team{ID: id, CaptainID: id}, nil
}

func newTournamentFixture(maxTeams int) (*memoryTournamentRepo, TournamentService) {
	now := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	repo := &memoryTournamentRepo{tournament: &models.Tournament{
		ID:        9,
		Name:      "Summer Cup",
		StartDate: now.Add(72 * time.Hour),
		EndDate:   now.Add(96 * time.Hour),
		MaxTeams:  maxTeams,
		Status:    models.TournamentUpcoming,
	}}
	svc := NewTournamentService(repo, &captainTeamRepo{}, &fakeTx{}, clockwork.NewFakeClockAt(now), nil)
	return repo, svc
}

func TestJoinTournamentRules(t *testing.T) {
	ctx := context.Background()
	repo, svc := newTournamentFixture(2)

	assert.ErrorIs(t, svc.JoinTournament(ctx, 9, 3, 4), ErrCaptainActionForbidden)
	assert.ErrorIs(t, svc.JoinTournament(ctx, 9, 0, 4), ErrValidationFailed)
	assert.ErrorIs(t, svc.JoinTournament(ctx, 9, 101, 101), ErrTeamNotFound)

	require.NoError(t, svc.JoinTournament(ctx, 9, 3, 3))
	assert.ErrorIs(t, svc.JoinTournament(ctx, 9, 3, 3), ErrTeamAlreadyRegistered)
	require.NoError(t, svc.JoinTournament(ctx, 9, 4, 4))
	assert.ErrorIs(t, svc.JoinTournament(ctx, 9, 5, 5), ErrTournamentFull)

	repo.tournament.Status = models.TournamentOngoing
	repo.tournament.MaxTeams = 8
	assert.ErrorIs(t, svc.JoinTournament(ctx, 9, 6, 6), ErrTournamentClosed)
	assert.ErrorIs(t, svc.JoinTournament(ctx, 10, 6, 6), ErrTournamentNotFound)
}

func TestGetBracketUsesRegisteredTeams(t *testing.T) {
	ctx := context.Background()
	_, svc := newTournamentFixture(8)

	_, err := svc.GetBracket(ctx, 9, brackets.FormatKnockout)
	assert.ErrorIs(t, err, ErrValidationFailed)

	for _, id := range []int{11, 12, 13} {
		require.NoError(t, svc.JoinTournament(ctx, 9, id, id))
	}

	matches, err := svc.GetBracket(ctx, 9, brackets.FormatKnockout)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, 11, *matches[0].HomeTeamID)
	assert.True(t, matches[1].IsBye)

	matches, err = svc.GetBracket(ctx, 9, brackets.FormatRoundRobin)
	require.NoError(t, err)
	assert.Len(t, matches, 3)

	_, err = svc.GetBracket(ctx, 9, "swiss")
	assert.ErrorIs(t, err, ErrValidationFailed)
	_, err = svc.GetBracket(ctx, 10, brackets.FormatKnockout)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
