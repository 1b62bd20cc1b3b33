package models

import "time"

// Conversation is a direct thread between two users. UserOneID is always the
// smaller id so each pair maps to exactly one row.
type Conversation struct {
	ID        int       `json:"id"`
	UserOneID int       `json:"user_one_id"`
	UserTwoID int       `json:"user_two_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Partner     *User    `json:"partner,omitempty"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}

func (c *Conversation) Includes(userID int) bool {
	return c.UserOneID == userID || c.UserTwoID == userID
}

func (c *Conversation) PartnerID(userID int) int {
	if c.UserOneID == userID {
		return c.UserTwoID
	}
	return c.UserOneID
}

type Message struct {
	ID             int        `json:"id"`
	ConversationID int        `json:"conversation_id"`
	SenderID       int        `json:"sender_id"`
	Content        string     `json:"content"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
