package models

import "time"

type TournamentStatus string

const (
	TournamentUpcoming  TournamentStatus = "upcoming"
	TournamentOngoing   TournamentStatus = "ongoing"
	TournamentCompleted TournamentStatus = "completed"
	TournamentCancelled TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentUpcoming, TournamentOngoing, TournamentCompleted, TournamentCancelled:
		return true
	}
	return false
}

type Tournament struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	OrganizerID int              `json:"organizer_id"`
	CourtID     *int             `json:"court_id,omitempty"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	MaxTeams    int              `json:"max_teams"`
	EntryFee    float64          `json:"entry_fee"`
	Prize       *string          `json:"prize,omitempty"`
	Status      TournamentStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`

	Court     *Court `json:"court,omitempty"`
	Organizer *User  `json:"organizer,omitempty"`
	Teams     []Team `json:"teams,omitempty"`
	TeamCount int    `json:"team_count"`
}

func (t *Tournament) IsFull() bool {
	return t.MaxTeams > 0 && t.TeamCount >= t.MaxTeams
}
