package usecase

import (
	"context"
	"math"
	"time"

	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type SecurityStatusOutput struct {
	AccountID            int64
	State                entity.EnrollmentState
	BackupCodesRemaining int
	SMSAvailable         bool
	FailedAttempts       int
	Locked               bool
	LockedUntil          *time.Time
	RetryAfterSeconds    int64
	UpdatedAt            time.Time
}

// SecurityStatus describes the caller's own protection.
func (s *Usecase) SecurityStatus(ctx context.Context) (*SecurityStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "SecurityStatus")
	defer span.End()

	acc, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	return s.status(ctx, acc)
}

func (s *Usecase) status(ctx context.Context, acc *entity.Account) (*SecurityStatusOutput, error) {
	rec, err := s.loadRecord(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := &SecurityStatusOutput{
		AccountID:            acc.ID,
		State:                rec.State(),
		BackupCodesRemaining: rec.UnusedBackupCodes(),
		SMSAvailable:         rec.TOTPEnabled && acc.Phone != "",
		FailedAttempts:       rec.FailedAttempts,
		Locked:               rec.IsLocked(now),
		UpdatedAt:            rec.UpdatedAt,
	}
	if out.Locked {
		until := *rec.LockedUntil
		out.LockedUntil = &until
		out.RetryAfterSeconds = int64(math.Ceil(rec.LockRemaining(now).Seconds()))
	}

	return out, nil
}
