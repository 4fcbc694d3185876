package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type TOTPSetupOutput struct {
	Secret          string
	ProvisioningURI string
}

// TOTPSetup begins enrollment. Calling it again before confirmation replaces
// the pending secret.
func (s *Usecase) TOTPSetup(ctx context.Context) (*TOTPSetupOutput, error) {
	ctx, span := s.startSpan(ctx, "TOTPSetup")
	defer span.End()

	acc, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	var out *TOTPSetupOutput
	_, err = s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, _ time.Time) error {
		if rec.TOTPEnabled {
			slog.WarnContext(ctx, "totp setup requested while enabled", "account_id", acc.ID)
			return errAlreadyEnabled()
		}

		key, err := s.totp.Generate(acc.Email)
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate totp key", "account_id", acc.ID, "error", err)
			return goerror.NewServer(err)
		}

		sealed, err := s.mfaEncryptor.Encrypt([]byte(key.Secret), mfa.Scope{
			AccountID: acc.ID,
			Purpose:   mfa.PurposePendingTOTPSeed,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to encrypt pending totp secret", "account_id", acc.ID, "error", err)
			return goerror.NewServer(err)
		}

		if err := rec.BeginSetup(sealed); err != nil {
			return errAlreadyEnabled()
		}

		out = &TOTPSetupOutput{Secret: key.Secret, ProvisioningURI: key.URI}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
