package models

import "time"

// RatingTarget is the kind of entity a rating is attached to.
type RatingTarget string

const (
	RatingTargetCourt  RatingTarget = "court"
	RatingTargetTeam   RatingTarget = "team"
	RatingTargetPlayer RatingTarget = "player"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	Target    RatingTarget `json:"target"`
	TargetID  int          `json:"target_id"`
	RaterID   int          `json:"rater_id"`
	Score     int          `json:"score"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// RatingAggregate is the mean and count of all ratings stored for a target.
type RatingAggregate struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"rating_count"`
}
