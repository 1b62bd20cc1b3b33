package models

import "time"

type CheckoutStatus string

const (
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutCompleted CheckoutStatus = "completed"
)

type CheckoutSession struct {
	ID          string         `json:"id"`
	UserID      int            `json:"user_id"`
	Tier        PremiumTier    `json:"tier"`
	AmountCents int            `json:"amount_cents"`
	Currency    string         `json:"currency"`
	Status      CheckoutStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
}

type PremiumStatus struct {
	IsPremium bool         `json:"is_premium"`
	Tier      *PremiumTier `json:"tier,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}
