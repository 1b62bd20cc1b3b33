package models

import "time"

type ProfileVisibility string

const (
	VisibilityPublic  ProfileVisibility = "public"
	VisibilityFriends ProfileVisibility = "friends"
	VisibilityPrivate ProfileVisibility = "private"
)

type UserSettings struct {
	UserID             int               `json:"user_id"`
	EmailNotifications bool              `json:"email_notifications"`
	PushNotifications  bool              `json:"push_notifications"`
	ProfileVisibility  ProfileVisibility `json:"profile_visibility"`
	ShowStats          bool              `json:"show_stats"`
	Language           string            `json:"language"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func DefaultSettings(userID int) UserSettings {
	return UserSettings{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		ProfileVisibility:  VisibilityPublic,
		ShowStats:          true,
		Language:           "de",
	}
}
