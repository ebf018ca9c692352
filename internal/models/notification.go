package models

import "time"

// NotificationClaim marks a notification as already sent for a given key
// (PostgreSQL). A row exists only while the send is in flight or after it
// succeeded.
type NotificationClaim struct {
	Key       string    `json:"key" gorm:"primaryKey;size:200"`
	Kind      string    `json:"kind" gorm:"size:50;index"`
	TargetID  string    `json:"target_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// Claim kinds.
const (
	ClaimChallengeActivated = "challenge_activated"
)

// ChallengeActivatedKey is the ledger key for the activation push of a challenge.
func ChallengeActivatedKey(challengeID string) string {
	return ClaimChallengeActivated + "/" + challengeID
}
