package models

import "time"

// SubscriptionTier represents a user's subscription level, matching the ENUM in the DB.
type SubscriptionTier string

const (
	TierFree SubscriptionTier = "free"
	TierPro  SubscriptionTier = "pro"
)

// Rank returns the ordering of a tier so that policies can express "at least tier X".
// Unknown tiers rank below everything.
func (t SubscriptionTier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierPro:
		return 1
	default:
		return -1
	}
}

func (t SubscriptionTier) Valid() bool {
	return t.Rank() >= 0
}

type User struct {
	ID           int              `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Email        string           `json:"email" db:"email"`
	PasswordHash string           `json:"-" db:"password_hash"`
	Tier         SubscriptionTier `json:"tier" db:"tier"`
	AvatarKey    *string          `json:"-" db:"avatar_key"`
	AvatarURL    *string          `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
