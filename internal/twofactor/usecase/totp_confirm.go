package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type TOTPConfirmInput struct {
	Code string `validate:"required,otpcode"`
}

type TOTPConfirmOutput struct {
	BackupCodes []string
}

// TOTPConfirm completes enrollment with a code from the pending secret and
// returns the first backup code batch. A wrong code here does not count
// towards the lockout.
func (s *Usecase) TOTPConfirm(ctx context.Context, in TOTPConfirmInput) (*TOTPConfirmOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPConfirm")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	var codes []string
	_, err = s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		if rec.TOTPEnabled {
			slog.WarnContext(ctx, "totp confirm requested while enabled", "account_id", acc.ID)
			return errAlreadyEnabled()
		}
		if len(rec.PendingSecret) == 0 {
			slog.WarnContext(ctx, "totp confirm without pending setup", "account_id", acc.ID)
			return errNoPendingSetup()
		}

		secret, err := s.mfaEncryptor.Decrypt(rec.PendingSecret, mfa.Scope{
			AccountID: acc.ID,
			Purpose:   mfa.PurposePendingTOTPSeed,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to decrypt pending totp secret", "account_id", acc.ID, "error", err)
			return goerror.NewServer(err)
		}

		if !s.totp.Validate(in.Code, string(secret), now) {
			slog.WarnContext(ctx, "totp confirm code mismatch", "account_id", acc.ID)
			return errInvalidCode()
		}

		active, err := s.mfaEncryptor.Encrypt(secret, mfa.Scope{
			AccountID: acc.ID,
			Purpose:   mfa.PurposeTOTPSeed,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to encrypt totp secret", "account_id", acc.ID, "error", err)
			return goerror.NewServer(err)
		}

		plain, hashes, err := s.newBackupCodes(ctx, acc.ID)
		if err != nil {
			return err
		}

		if err := rec.CompleteSetup(active, hashes); err != nil {
			slog.ErrorContext(ctx, "failed to complete totp setup", "account_id", acc.ID, "error", err)
			return goerror.NewServer(err)
		}

		codes = plain
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, acc, entity.EventTwoFactorEnabled, acc.ID, nil)

	return &TOTPConfirmOutput{BackupCodes: codes}, nil
}
