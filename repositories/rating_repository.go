package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/meetbasket/models"
)

var (
	ErrRatingTargetNotFound = errors.New("rating target not found")
	ErrUnknownRatingTarget  = errors.New("unknown rating target")
)

// ratingTable describes where ratings for one target kind live and which
// entity row carries the aggregate.
type ratingTable struct {
	table       string
	targetCol   string
	raterCol    string
	entityTable string
}

var ratingTables = map[models.RatingTarget]ratingTable{
	models.RatingTargetCourt:  {table: "court_ratings", targetCol: "court_id", raterCol: "user_id", entityTable: "courts"},
	models.RatingTargetTeam:   {table: "team_ratings", targetCol: "team_id", raterCol: "user_id", entityTable: "teams"},
	models.RatingTargetPlayer: {table: "player_ratings", targetCol: "rated_user_id", raterCol: "rater_id", entityTable: "users"},
}

func tableFor(target models.RatingTarget) (ratingTable, error) {
	t, ok := ratingTables[target]
	if !ok {
		return ratingTable{}, fmt.Errorf("%w: %q", ErrUnknownRatingTarget, target)
	}
	return t, nil
}

// RatingRepository stores one rating per (target, rater) and maintains the
// average/count columns on the rated entity.
type RatingRepository interface {
	LockTarget(ctx context.Context, exec SQLExecutor, target models.RatingTarget, targetID int) error
	Upsert(ctx context.Context, exec SQLExecutor, rating *models.Rating) error
	Aggregate(ctx context.Context, exec SQLExecutor, target models.RatingTarget, targetID int) (models.RatingAggregate, error)
	StoreAggregate(ctx context.Context, exec SQLExecutor, target models.RatingTarget, targetID int, agg models.RatingAggregate) error
	DeleteByRater(ctx context.Context, exec SQLExecutor, target models.RatingTarget, raterID int) ([]int, error)
	RecomputeAll(ctx context.Context, target models.RatingTarget) (int64, error)
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

// LockTarget takes a row lock on the rated entity so concurrent raters of the
// same target serialize their read-aggregate-write.
func (r *postgresRatingRepository) LockTarget(ctx context.Context, exec SQLExecutor, target models.RatingTarget, targetID int) error {
	t, err := tableFor(target)
	if err != nil {
		return err
	}
	var id int
	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, t.entityTable)
	if err := executor(r.db, exec).QueryRowContext(ctx, query, targetID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRatingTargetNotFound
		}
		return fmt.Errorf("failed to lock %s %d: %w", target, targetID, err)
	}
	return nil
}

func (r *postgresRatingRepository) Upsert(ctx context.Context, exec SQLExecutor, rating *models.Rating) error {
	t, err := tableFor(rating.Target)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, rating, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (%[2]s, %[3]s) DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`, t.table, t.targetCol, t.raterCol)

	err = executor(r.db, exec).QueryRowContext(ctx, query, rating.TargetID, rating.RaterID, rating.Score).Scan(&rating.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrRatingTargetNotFound
		}
		return fmt.Errorf("failed to upsert %s rating: %w", rating.Target, err)
	}
	return nil
}

func (r *postgresRatingRepository) Aggregate(ctx context.Context, exec SQLExecutor, target models.RatingTarget, targetID int) (models.RatingAggregate, error) {
	t, err := tableFor(target)
	if err != nil {
		return models.RatingAggregate{}, err
	}
	query := fmt.Sprintf(`SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM %s WHERE %s = $1`, t.table, t.targetCol)

	var agg models.RatingAggregate
	if err := executor(r.db, exec).QueryRowContext(ctx, query, targetID).Scan(&agg.Average, &agg.Count); err != nil {
		return models.RatingAggregate{}, fmt.Errorf("failed to aggregate %s ratings: %w", target, err)
	}
	return agg, nil
}

func (r *postgresRatingRepository) StoreAggregate(ctx context.Context, exec SQLExecutor, target models.RatingTarget, targetID int, agg models.RatingAggregate) error {
	t, err := tableFor(target)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET average_rating = $1, rating_count = $2 WHERE id = $3`, t.entityTable)
	result, err := executor(r.db, exec).ExecContext(ctx, query, agg.Average, agg.Count, targetID)
	if err != nil {
		return fmt.Errorf("failed to store %s rating aggregate: %w", target, err)
	}
	return checkAffectedRows(result, ErrRatingTargetNotFound)
}

// DeleteByRater removes every rating the user gave to targets of one kind and
// returns the ids of the targets whose aggregates are now stale.
func (r *postgresRatingRepository) DeleteByRater(ctx context.Context, exec SQLExecutor, target models.RatingTarget, raterID int) ([]int, error) {
	t, err := tableFor(target)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`, t.table, t.raterCol, t.targetCol)
	rows, err := executor(r.db, exec).QueryContext(ctx, query, raterID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete %s ratings of user %d: %w", target, raterID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan rated %s id: %w", target, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecomputeAll rewrites the aggregate of every entity of the target kind from
// the stored rating rows.
func (r *postgresRatingRepository) RecomputeAll(ctx context.Context, target models.RatingTarget) (int64, error) {
	t, err := tableFor(target)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`
		UPDATE %[1]s e SET
			average_rating = COALESCE(agg.avg, 0),
			rating_count = COALESCE(agg.cnt, 0)
		FROM %[1]s base
		LEFT JOIN (
			SELECT %[3]s AS target_id, AVG(rating) AS avg, COUNT(*) AS cnt
			FROM %[2]s GROUP BY %[3]s
		) agg ON agg.target_id = base.id
		WHERE e.id = base.id`, t.entityTable, t.table, t.targetCol)

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recompute %s ratings: %w", target, err)
	}
	return result.RowsAffected()
}
