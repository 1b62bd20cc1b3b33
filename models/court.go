package models

import "time"

type Court struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Surface       *string   `json:"surface,omitempty"`
	Hoops         int       `json:"hoops"`
	Indoor        bool      `json:"indoor"`
	Lighting      bool      `json:"lighting"`
	IsFree        bool      `json:"is_free"`
	Description   *string   `json:"description,omitempty"`
	ImageKey      *string   `json:"-"`
	ImageURL      *string   `json:"image_url,omitempty"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CheckinCount  int       `json:"checkin_count"`
	CreatedBy     *int      `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	Reviews []CourtReview `json:"reviews,omitempty"`
}

type CourtReview struct {
	ID        int       `json:"id"`
	CourtID   int       `json:"court_id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Rating    int       `json:"rating"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NearbyCourt is a court annotated with its distance from the query point.
type NearbyCourt struct {
	Court
	DistanceKM float64 `json:"distance_km"`
}
