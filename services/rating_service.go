package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/metrics"
	"github.com/Dosada05/meetbasket/models"
	"github.com/Dosada05/meetbasket/repositories"
)

type RatingService interface {
	Rate(ctx context.Context, target models.RatingTarget, targetID, raterID, score int) (models.RatingAggregate, error)
	RecomputeAll(ctx context.Context, target models.RatingTarget) (int64, error)
}

type ratingService struct {
	ratingRepo  repositories.RatingRepository
	tx          repositories.Transactor
	invalidator *Invalidator
	metrics     metrics.Metrics
}

func NewRatingService(
	ratingRepo repositories.RatingRepository,
	tx repositories.Transactor,
	invalidator *Invalidator,
	m metrics.Metrics,
) RatingService {
	return &ratingService{
		ratingRepo:  ratingRepo,
		tx:          tx,
		invalidator: invalidator,
		metrics:     m,
	}
}

// Rate stores the rater's score for the target (replacing an earlier one) and
// writes the recomputed mean and rater count back onto the target, all in one
// transaction. The target row lock serializes concurrent raters.
func (s *ratingService) Rate(ctx context.Context, target models.RatingTarget, targetID, raterID, score int) (models.RatingAggregate, error) {
	if score < models.MinRating || score > models.MaxRating {
		return models.RatingAggregate{}, ErrInvalidRating
	}
	if target == models.RatingTargetPlayer && targetID == raterID {
		return models.RatingAggregate{}, ErrSelfRating
	}

	var agg models.RatingAggregate
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ratingRepo.LockTarget(ctx, exec, target, targetID); err != nil {
			return err
		}
		rating := &models.Rating{
			Target:   target,
			TargetID: targetID,
			RaterID:  raterID,
			Score:    score,
		}
		if err := s.ratingRepo.Upsert(ctx, exec, rating); err != nil {
			return err
		}
		var err error
		agg, err = refreshAggregate(ctx, s.ratingRepo, exec, target, targetID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrRatingTargetNotFound) {
			return models.RatingAggregate{}, ratingTargetNotFound(target)
		}
		if errors.Is(err, repositories.ErrUnknownRatingTarget) {
			return models.RatingAggregate{}, fmt.Errorf("%w: %s", ErrValidationFailed, err)
		}
		return models.RatingAggregate{}, fmt.Errorf("failed to rate %s %d: %w", target, targetID, err)
	}

	if s.metrics != nil {
		s.metrics.IncRatingSubmitted(string(target))
	}
	switch target {
	case models.RatingTargetCourt:
		s.invalidator.Apply(ctx, CourtRated, raterID)
	case models.RatingTargetPlayer:
		s.invalidator.Apply(ctx, PlayerRated, targetID)
	}
	return agg, nil
}

// RecomputeAll rebuilds the stored aggregates of every entity of one kind.
func (s *ratingService) RecomputeAll(ctx context.Context, target models.RatingTarget) (int64, error) {
	n, err := s.ratingRepo.RecomputeAll(ctx, target)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute %s ratings: %w", target, err)
	}
	switch target {
	case models.RatingTargetCourt:
		s.invalidator.Apply(ctx, CourtRated, 0)
	case models.RatingTargetPlayer:
		s.invalidator.Apply(ctx, PlayerRated, 0)
	}
	return n, nil
}

// refreshAggregate writes the mean and count of the stored rating rows onto
// the target. The caller holds the target row lock.
func refreshAggregate(ctx context.Context, repo repositories.RatingRepository, exec repositories.SQLExecutor, target models.RatingTarget, targetID int) (models.RatingAggregate, error) {
	agg, err := repo.Aggregate(ctx, exec, target, targetID)
	if err != nil {
		return models.RatingAggregate{}, err
	}
	return agg, repo.StoreAggregate(ctx, exec, target, targetID, agg)
}

// withdrawRatings drops every rating the user gave and re-aggregates the
// targets that lost a row.
func withdrawRatings(ctx context.Context, repo repositories.RatingRepository, exec repositories.SQLExecutor, raterID int) error {
	for _, target := range []models.RatingTarget{models.RatingTargetCourt, models.RatingTargetTeam, models.RatingTargetPlayer} {
		ids, err := repo.DeleteByRater(ctx, exec, target, raterID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := repo.LockTarget(ctx, exec, target, id); err != nil {
				if errors.Is(err, repositories.ErrRatingTargetNotFound) {
					continue
				}
				return err
			}
			if _, err := refreshAggregate(ctx, repo, exec, target, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func ratingTargetNotFound(target models.RatingTarget) error {
	switch target {
	case models.RatingTargetCourt:
		return ErrCourtNotFound
	case models.RatingTargetTeam:
		return ErrTeamNotFound
	case models.RatingTargetPlayer:
		return ErrUserNotFound
	}
	return ErrNotFound
}
