package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type DisableInput struct {
	Password string `validate:"required,max=72"`
	FactorInput
}

// Disable turns two-factor authentication off after a fresh password and
// second factor. Lockout state survives.
func (s *Usecase) Disable(ctx context.Context, in DisableInput) error {
	ctx, span := s.startSpan(ctx, "Disable")
	defer span.End()

	in.FactorInput.trim()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	acc, err := s.currentAccount(ctx)
	if err != nil {
		return err
	}

	var v verification
	saved, err := s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		if err := s.reauthenticate(ctx, acc, rec, in.Password, in.FactorInput, now, &v); err != nil {
			return err
		}

		rec.Disable()
		return nil
	})
	s.afterVerification(ctx, acc, saved, &v)
	if err != nil {
		return err
	}

	s.publish(ctx, acc, entity.EventTwoFactorDisabled, acc.ID, nil)

	return nil
}
