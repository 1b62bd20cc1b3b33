package services

import (
	"context"
	"testing"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingAverageUsesFinalScorePerRater(t *testing.T) {
	repo := newMemoryRatingRepo()
	tx := &fakeTx{}
	m := metrics.NewMock()
	svc := NewRatingService(repo, tx, nil, m)
	ctx := context.Background()

	_, err := svc.Rate(ctx, models.RatingTargetCourt, 3, 1, 5)
	require.NoError(t, err)
	_, err = svc.Rate(ctx, models.RatingTargetCourt, 3, 2, 4)
	require.NoError(t, err)
	// rater 1 changes their mind
	agg, err := svc.Rate(ctx, models.RatingTargetCourt, 3, 1, 3)
	require.NoError(t, err)

	assert.InDelta(t, 3.5, agg.Average, 1e-9)
	assert.Equal(t, 2, agg.Count)
	assert.Equal(t, agg, repo.stored[ratingKey{models.RatingTargetCourt, 3}])
	assert.Equal(t, 3, tx.calls)
	assert.Equal(t, 3, repo.locks)
	assert.Equal(t, 3, m.Ratings["court"])
}

func TestRatingTargetsAreIndependent(t *testing.T) {
	repo := newMemoryRatingRepo()
	svc := NewRatingService(repo, &fakeTx{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Rate(ctx, models.RatingTargetTeam, 1, 10, 2)
	require.NoError(t, err)
	agg, err := svc.Rate(ctx, models.RatingTargetPlayer, 1, 10, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, agg.Count)
	assert.InDelta(t, 5.0, agg.Average, 1e-9)
	assert.InDelta(t, 2.0, repo.stored[ratingKey{models.RatingTargetTeam, 1}].Average, 1e-9)
}

func TestRatingValidation(t *testing.T) {
	repo := newMemoryRatingRepo()
	tx := &fakeTx{}
	svc := NewRatingService(repo, tx, nil, nil)
	ctx := context.Background()

	for _, score := range []int{0, 6, -1} {
		_, err := svc.Rate(ctx, models.RatingTargetCourt, 1, 2, score)
		assert.ErrorIs(t, err, ErrInvalidRating, "score %d", score)
	}

	_, err := svc.Rate(ctx, models.RatingTargetPlayer, 4, 4, 5)
	assert.ErrorIs(t, err, ErrSelfRating)
	assert.Zero(t, tx.calls)

	repo.missing[ratingKey{models.RatingTargetTeam, 99}] = true
	_, err = svc.Rate(ctx, models.RatingTargetTeam, 99, 1, 4)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestCourtRatingInvalidatesCourtList(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	loads := 0
	loader := func(context.Context) ([]models.Court, error) {
		loads++
		return []models.Court{{ID: 3, Name: "Mauerpark"}}, nil
	}

	_, err := cacheGet(ctx, c, loader)
	require.NoError(t, err)

	svc := NewRatingService(newMemoryRatingRepo(), &fakeTx{}, NewInvalidator(c, nil), nil)
	_, err = svc.Rate(ctx, models.RatingTargetCourt, 3, 1, 4)
	require.NoError(t, err)

	_, err = cacheGet(ctx, c, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}
