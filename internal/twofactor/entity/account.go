package entity

import "time"

// Account is the slice of the account collaborator this module reads.
type Account struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	// Phone is the registered SMS destination; empty when none.
	Phone string
	Roles []string
}

// LoginChallenge binds an opaque token to an account that passed the
// password step and still owes a second factor.
type LoginChallenge struct {
	AccountID int64
	ExpiresAt time.Time
}

// SecurityEvent is published whenever the protection of an account changes.
type SecurityEvent struct {
	ID         string
	Type       EventType
	AccountID  int64
	Email      string
	FullName   string
	ActorID    int64
	OccurredAt time.Time
	// LockedUntil is set for EventAccountLocked.
	LockedUntil *time.Time
}
