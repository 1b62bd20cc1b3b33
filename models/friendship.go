package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

type Friendship struct {
	ID          int              `json:"id"`
	RequesterID int              `json:"requester_id"`
	AddresseeID int              `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`

	Requester *User `json:"requester,omitempty"`
	Addressee *User `json:"addressee,omitempty"`
}

// Other returns the id of the party that is not userID.
func (f *Friendship) Other(userID int) int {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

type FriendRequests struct {
	Incoming []Friendship `json:"incoming"`
	Outgoing []Friendship `json:"outgoing"`
}
