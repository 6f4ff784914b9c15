package models

import "time"

// DuelStatus represents the lifecycle states of a duel, matching the ENUM in the DB.
// Transitions form a DAG: pending -> active -> completed, pending -> expired.
// Completed and expired are terminal; a duel never returns to pending.
type DuelStatus string

const (
	DuelStatusPending   DuelStatus = "pending"
	DuelStatusActive    DuelStatus = "active"
	DuelStatusCompleted DuelStatus = "completed"
	DuelStatusExpired   DuelStatus = "expired"
)

func (s DuelStatus) Terminal() bool {
	return s == DuelStatusCompleted || s == DuelStatusExpired
}

// Duel is the central entity. Rows are never deleted: completed and expired
// duels are retained for history.
//
// OpponentID, AcceptedAt and EndDate are set together, exactly once, by the
// accept transition. WinnerID is set only by the completion sweep.
type Duel struct {
	ID              string     `json:"id" db:"id"`
	ChallengerID    int        `json:"challenger_id" db:"challenger_id"`
	OpponentID      *int       `json:"opponent_id,omitempty" db:"opponent_id"`
	InviteToken     string     `json:"-" db:"invite_token"`
	Status          DuelStatus `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	AcceptedAt      *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	EndDate         *time.Time `json:"end_date,omitempty" db:"end_date"`
	ChallengerScore int64      `json:"challenger_score" db:"challenger_score"`
	OpponentScore   int64      `json:"opponent_score" db:"opponent_score"`
	WinnerID        *int       `json:"winner_id,omitempty" db:"winner_id"`

	// Optional related entities (not mapped directly).
	Challenger *User `json:"challenger,omitempty" db:"-"`
	Opponent   *User `json:"opponent,omitempty" db:"-"`
}

// IsParticipant reports whether userID is the challenger or the accepted opponent.
func (d *Duel) IsParticipant(userID int) bool {
	if d.ChallengerID == userID {
		return true
	}
	return d.OpponentID != nil && *d.OpponentID == userID
}
