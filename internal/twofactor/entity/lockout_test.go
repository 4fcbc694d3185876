package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockoutPolicy_RecordFailure(t *testing.T) {
	p := DefaultLockoutPolicy()
	a := NewAccountSecurity(1)

	for i := 1; i < DefaultLockoutThreshold; i++ {
		assert.False(t, p.RecordFailure(a, t0))
		assert.Equal(t, i, a.FailedAttempts)
	}
	assert.False(t, a.IsLocked(t0))

	assert.True(t, p.RecordFailure(a, t0))
	assert.Equal(t, 0, a.FailedAttempts)
	assert.Equal(t, t0.Add(2*time.Hour), *a.LockedUntil)
	assert.True(t, a.IsLocked(t0))
	assert.Equal(t, 2*time.Hour, a.LockRemaining(t0))

	assert.True(t, a.IsLocked(t0.Add(2*time.Hour-time.Second)))
	assert.False(t, a.IsLocked(t0.Add(2*time.Hour)))
	assert.Zero(t, a.LockRemaining(t0.Add(3*time.Hour)))
}

func TestLockoutPolicy_RecordSuccessKeepsLock(t *testing.T) {
	p := LockoutPolicy{Threshold: 2, Duration: time.Minute}
	a := NewAccountSecurity(1)

	p.RecordFailure(a, t0)
	p.RecordSuccess(a)
	assert.Zero(t, a.FailedAttempts)

	p.RecordFailure(a, t0)
	p.RecordFailure(a, t0)
	assert.True(t, a.IsLocked(t0))

	p.RecordSuccess(a)
	assert.True(t, a.IsLocked(t0), "success cannot lift a lock")

	a.Unlock()
	assert.False(t, a.IsLocked(t0))
}

func TestLockoutPolicy_Normalize(t *testing.T) {
	assert.Equal(t, DefaultLockoutPolicy(), LockoutPolicy{}.Normalize())
	assert.Equal(t, LockoutPolicy{Threshold: 3, Duration: time.Minute}, LockoutPolicy{Threshold: 3, Duration: time.Minute}.Normalize())
}
