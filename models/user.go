package models

import "time"

type PremiumTier string

const (
	TierMonthly  PremiumTier = "monthly"
	TierYearly   PremiumTier = "yearly"
	TierLifetime PremiumTier = "lifetime"
)

func (t PremiumTier) Valid() bool {
	switch t {
	case TierMonthly, TierYearly, TierLifetime:
		return true
	}
	return false
}

type User struct {
	ID               int          `json:"id"`
	Username         string       `json:"username"`
	Email            string       `json:"email,omitempty"`
	PasswordHash     string       `json:"-"`
	FirstName        string       `json:"first_name"`
	LastName         string       `json:"last_name"`
	City             *string      `json:"city,omitempty"`
	Bio              *string      `json:"bio,omitempty"`
	Position         *string      `json:"position,omitempty"`
	SkillLevel       *int         `json:"skill_level,omitempty"`
	HeightCM         *int         `json:"height_cm,omitempty"`
	AvatarKey        *string      `json:"-"`
	AvatarURL        *string      `json:"avatar_url,omitempty"`
	IsPremium        bool         `json:"is_premium"`
	PremiumTier      *PremiumTier `json:"premium_tier,omitempty"`
	PremiumExpiresAt *time.Time   `json:"premium_expires_at,omitempty"`
	AverageRating    float64      `json:"average_rating"`
	RatingCount      int          `json:"rating_count"`
	CreatedAt        time.Time    `json:"created_at"`
}

// DisplayName prefers the username, falling back to the full name.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// PlayerListItem is the row shape of the public player directory.
type PlayerListItem struct {
	ID            int     `json:"id"`
	Username      string  `json:"username"`
	City          *string `json:"city,omitempty"`
	Position      *string `json:"position,omitempty"`
	SkillLevel    *int    `json:"skill_level,omitempty"`
	AvatarKey     *string `json:"-"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	IsPremium     bool    `json:"is_premium"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int     `json:"rating_count"`
	GamesPlayed   int     `json:"games_played"`
}
