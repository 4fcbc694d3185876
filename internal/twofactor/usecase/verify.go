package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

// FactorInput carries the second factor of a request. Exactly one field must
// be set.
type FactorInput struct {
	TOTPCode   string `validate:"omitempty,otpcode"`
	BackupCode string `validate:"omitempty,backupcode"`
	SMSCode    string `validate:"omitempty,otpcode"`
}

func (f *FactorInput) trim() {
	f.TOTPCode = strings.TrimSpace(f.TOTPCode)
	f.BackupCode = strings.TrimSpace(f.BackupCode)
	f.SMSCode = strings.TrimSpace(f.SMSCode)
}

// pick returns the single supplied factor, or ErrInvalidRequest when none or
// more than one is set.
func (f FactorInput) pick() (entity.Factor, string, error) {
	supplied := lo.PickBy(map[entity.Factor]string{
		entity.FactorTOTP:       f.TOTPCode,
		entity.FactorBackupCode: f.BackupCode,
		entity.FactorSMS:        f.SMSCode,
	}, func(_ entity.Factor, code string) bool {
		return code != ""
	})
	if len(supplied) != 1 {
		return entity.FactorUnknown, "", entity.ErrInvalidRequest
	}

	entry := lo.Entries(supplied)[0]
	return entry.Key, entry.Value, nil
}

// amr maps a factor onto the amr claim value.
func amr(f entity.Factor) string {
	switch f {
	case entity.FactorBackupCode:
		return jwt.MethodRecovery
	case entity.FactorSMS:
		return jwt.MethodSMS
	default:
		return jwt.MethodOTP
	}
}

func smsDigestInput(accountID int64, code string) string {
	return strconv.FormatInt(accountID, 10) + ":" + code
}

// checkFactor compares code against rec and applies one-time use: a matched
// backup code is marked used, an SMS answer consumes the challenge or one of
// its attempts. It never touches the lockout counter. A missing or dead SMS
// challenge yields entity.ErrChallengeExpired.
func (s *Usecase) checkFactor(ctx context.Context, rec *entity.AccountSecurity, factor entity.Factor, code string, now time.Time) (bool, error) {
	switch factor {
	case entity.FactorTOTP:
		if !rec.TOTPEnabled {
			return false, nil
		}
		secret, err := s.mfaEncryptor.Decrypt(rec.TOTPSecret, mfa.Scope{
			AccountID: rec.AccountID,
			Purpose:   mfa.PurposeTOTPSeed,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to decrypt totp secret", "account_id", rec.AccountID, "error", err)
			return false, goerror.NewServer(err)
		}
		return s.totp.Validate(code, string(secret), now), nil

	case entity.FactorBackupCode:
		norm := mfa.NormalizeRecoveryCode(code)
		return rec.RedeemBackupCode(func(h string) bool {
			return s.argon2id.Verify(h, norm)
		}), nil

	case entity.FactorSMS:
		input := smsDigestInput(rec.AccountID, code)
		return rec.AnswerSMSChallenge(now, func(h string) bool {
			return s.hmac.Verify(h, input)
		})

	default:
		return false, entity.ErrInvalidRequest
	}
}

// verification is the state of one Challenge Verifier run. It is reset on
// every attempt of withRecord so a conflict retry starts clean.
type verification struct {
	factor   entity.Factor
	lockedAt *time.Time
}

// verify is the Challenge Verifier. It rejects a locked account before any
// comparison, treats a malformed factor selection as a caller error, and
// otherwise feeds the result into the lockout policy.
func (s *Usecase) verify(ctx context.Context, rec *entity.AccountSecurity, in FactorInput, now time.Time, v *verification) error {
	*v = verification{}

	if rec.IsLocked(now) {
		slog.WarnContext(ctx, "verification rejected while locked", "account_id", rec.AccountID)
		return errLocked(rec.LockRemaining(now))
	}

	factor, code, err := in.pick()
	if err != nil {
		slog.WarnContext(ctx, "second factor selection is invalid", "account_id", rec.AccountID)
		return errInvalidRequest()
	}
	v.factor = factor

	ok, err := s.checkFactor(ctx, rec, factor, code, now)
	if errors.Is(err, entity.ErrChallengeExpired) {
		slog.WarnContext(ctx, "sms challenge is missing or expired", "account_id", rec.AccountID)
		s.countVerify(ctx, factor, "expired")
		return persistThen(errChallengeExpired())
	}
	if err != nil {
		return err
	}

	if !ok {
		s.countVerify(ctx, factor, "failure")
		return persistThen(s.recordFailure(ctx, rec, factor.String(), now, v, errInvalidCode()))
	}

	s.lockoutPolicy().RecordSuccess(rec)
	s.countVerify(ctx, factor, "success")
	return nil
}

// recordFailure feeds one failed comparison into the lockout policy and
// returns the rejection to surface, which is AccountLocked when this failure
// triggered the lock.
func (s *Usecase) recordFailure(ctx context.Context, rec *entity.AccountSecurity, credential string, now time.Time, v *verification, rejection error) error {
	if !s.lockoutPolicy().RecordFailure(rec, now) {
		slog.WarnContext(ctx, "credential rejected", "account_id", rec.AccountID, "credential", credential,
			"failed_attempts", rec.FailedAttempts)
		return rejection
	}

	until := *rec.LockedUntil
	v.lockedAt = &until
	slog.WarnContext(ctx, "account locked after repeated failures", "account_id", rec.AccountID, "locked_until", until)
	return errLocked(rec.LockRemaining(now))
}

// afterVerification reports a lock that was set and saved by this request.
func (s *Usecase) afterVerification(ctx context.Context, acc *entity.Account, saved *entity.AccountSecurity, v *verification) {
	if saved == nil || v.lockedAt == nil {
		return
	}

	s.countLockout(ctx)
	s.publish(ctx, acc, entity.EventAccountLocked, acc.ID, v.lockedAt)
}
