package entity

import "time"

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 2 * time.Hour
)

// LockoutPolicy locks an account for Duration after Threshold consecutive
// failures. Password and second-factor failures share one counter.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy is five failures and a two hour lock.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// Normalize fills zero fields with defaults.
func (p LockoutPolicy) Normalize() LockoutPolicy {
	if p.Threshold <= 0 {
		p.Threshold = DefaultLockoutThreshold
	}
	if p.Duration <= 0 {
		p.Duration = DefaultLockoutDuration
	}
	return p
}

// RecordFailure counts one failure and returns true when it triggered a
// lock. The counter restarts from zero once the lock is set.
func (p LockoutPolicy) RecordFailure(a *AccountSecurity, now time.Time) bool {
	p = p.Normalize()

	a.FailedAttempts++
	if a.FailedAttempts < p.Threshold {
		return false
	}

	until := now.Add(p.Duration)
	a.LockedUntil = &until
	a.FailedAttempts = 0
	return true
}

// RecordSuccess resets the counter. An active lock is left in place.
func (LockoutPolicy) RecordSuccess(a *AccountSecurity) {
	a.FailedAttempts = 0
}

// IsLocked reports whether now falls inside the lock window.
func (a *AccountSecurity) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// LockRemaining is the time left on the lock, or zero.
func (a *AccountSecurity) LockRemaining(now time.Time) time.Duration {
	if !a.IsLocked(now) {
		return 0
	}
	return a.LockedUntil.Sub(now)
}

// Unlock lifts the lock and resets the counter.
func (a *AccountSecurity) Unlock() {
	a.LockedUntil = nil
	a.FailedAttempts = 0
}
