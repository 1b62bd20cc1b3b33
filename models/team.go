package models

import "time"

type Team struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	City          *string   `json:"city,omitempty"`
	Description   *string   `json:"description,omitempty"`
	CaptainID     int       `json:"captain_id"`
	AverageRating float64   `json:"average_rating"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`

	LogoKey *string `json:"-"`
	LogoURL *string `json:"logo_url,omitempty"`

	Captain     *User  `json:"captain,omitempty"`
	Members     []User `json:"members,omitempty"`
	MemberCount int    `json:"member_count"`
}

func (t *Team) HasMember(userID int) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
