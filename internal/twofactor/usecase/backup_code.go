package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type RegenerateBackupCodesInput struct {
	Password string `validate:"required,max=72"`
	FactorInput
}

type RegenerateBackupCodesOutput struct {
	BackupCodes []string
}

// RegenerateBackupCodes replaces the whole batch after a fresh password and
// second factor. Earlier codes stop working at once.
func (s *Usecase) RegenerateBackupCodes(ctx context.Context, in RegenerateBackupCodesInput) (*RegenerateBackupCodesOutput, error) {
	ctx, span := s.startSpan(ctx, "RegenerateBackupCodes")
	defer span.End()

	in.FactorInput.trim()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	var (
		codes []string
		v     verification
	)
	saved, err := s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		if err := s.reauthenticate(ctx, acc, rec, in.Password, in.FactorInput, now, &v); err != nil {
			return err
		}

		plain, hashes, err := s.newBackupCodes(ctx, acc.ID)
		if err != nil {
			return err
		}

		rec.ReplaceBackupCodes(hashes)
		codes = plain
		return nil
	})
	s.afterVerification(ctx, acc, saved, &v)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, acc, entity.EventBackupCodesRegenerate, acc.ID, nil)

	return &RegenerateBackupCodesOutput{BackupCodes: codes}, nil
}

// newBackupCodes returns a plaintext batch for one-time display and the
// argon2id hashes of its normalized form for storage.
func (s *Usecase) newBackupCodes(ctx context.Context, accountID int64) ([]string, []string, error) {
	plain, err := s.mfaRecoveryCode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "account_id", accountID, "error", err)
		return nil, nil, goerror.NewServer(err)
	}

	hashes := make([]string, 0, len(plain))
	for _, code := range plain {
		h, err := s.argon2id.Hash(mfa.NormalizeRecoveryCode(code))
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash backup code", "account_id", accountID, "error", err)
			return nil, nil, goerror.NewServer(err)
		}
		hashes = append(hashes, string(h))
	}

	return plain, hashes, nil
}

// reauthenticate checks the password and a current second factor together.
// Both comparisons always run and either failure yields the same
// ReauthRequired. A correct factor is not spent when the password is wrong.
func (s *Usecase) reauthenticate(ctx context.Context, acc *entity.Account, rec *entity.AccountSecurity, password string, in FactorInput, now time.Time, v *verification) error {
	*v = verification{}

	if rec.IsLocked(now) {
		slog.WarnContext(ctx, "re-authentication rejected while locked", "account_id", acc.ID)
		return errLocked(rec.LockRemaining(now))
	}

	if !rec.TOTPEnabled {
		slog.WarnContext(ctx, "re-authentication requested while disabled", "account_id", acc.ID)
		return errNotEnabled()
	}

	factor, code, err := in.pick()
	if err != nil {
		slog.WarnContext(ctx, "second factor selection is invalid", "account_id", acc.ID)
		return errInvalidRequest()
	}
	v.factor = factor

	passwordOK := s.bcrypt.Verify(acc.PasswordHash, password)

	trial := rec.Clone()
	factorOK, err := s.checkFactor(ctx, trial, factor, code, now)
	if err != nil && !errors.Is(err, entity.ErrChallengeExpired) {
		return err
	}

	if !factorOK || passwordOK {
		*rec = *trial
	}

	if !passwordOK || !factorOK {
		s.countVerify(ctx, factor, "failure")
		return persistThen(s.recordFailure(ctx, rec, "reauth", now, v, errReauthRequired()))
	}

	s.lockoutPolicy().RecordSuccess(rec)
	s.countVerify(ctx, factor, "success")
	return nil
}
