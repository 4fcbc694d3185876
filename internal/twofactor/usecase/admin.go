package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

const (
	objAccountSecurity = "account_security"

	actRead   = "read"
	actUnlock = "unlock"
	actReset  = "reset"
)

type AdminAccountInput struct {
	AccountID int64 `validate:"required,gt=0"`
}

// AdminSecurityStatus describes the protection of any account.
func (s *Usecase) AdminSecurityStatus(ctx context.Context, in AdminAccountInput) (*SecurityStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "AdminSecurityStatus")
	defer span.End()

	if _, err := s.authenticatedAndAuthorized(ctx, objAccountSecurity, actRead); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.loadAccount(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}

	return s.status(ctx, acc)
}

// AdminUnlock lifts an active lock and clears the failure counter.
func (s *Usecase) AdminUnlock(ctx context.Context, in AdminAccountInput) error {
	ctx, span := s.startSpan(ctx, "AdminUnlock")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, objAccountSecurity, actUnlock)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	acc, err := s.loadAccount(ctx, in.AccountID)
	if err != nil {
		return err
	}

	var wasLocked bool
	_, err = s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		wasLocked = rec.IsLocked(now)
		rec.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "account unlocked by admin", "account_id", acc.ID, "actor_id", clm.AccountID, "was_locked", wasLocked)
	if wasLocked {
		s.publish(ctx, acc, entity.EventAccountUnlocked, clm.AccountID, nil)
	}

	return nil
}

// AdminReset2FA clears every second-factor artefact of an account without
// re-authentication, for users who lost both device and backup codes.
func (s *Usecase) AdminReset2FA(ctx context.Context, in AdminAccountInput) error {
	ctx, span := s.startSpan(ctx, "AdminReset2FA")
	defer span.End()

	clm, err := s.authenticatedAndAuthorized(ctx, objAccountSecurity, actReset)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	acc, err := s.loadAccount(ctx, in.AccountID)
	if err != nil {
		return err
	}

	_, err = s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, _ time.Time) error {
		if rec.State() == entity.StateDisabled {
			slog.WarnContext(ctx, "reset requested while disabled", "account_id", acc.ID)
			return errNotEnabled()
		}
		rec.Disable()
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "two-factor reset by admin", "account_id", acc.ID, "actor_id", clm.AccountID)
	s.publish(ctx, acc, entity.EventTwoFactorReset, clm.AccountID, nil)

	return nil
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, errAuthRequired()
	}

	subjects := append([]string{strconv.FormatInt(clm.AccountID, 10)}, clm.Roles...)
	ok, err := s.authz.Allowed(ctx, obj, act, subjects...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "account not allowed", "account_id", clm.AccountID, "object", obj, "action", act)
		return nil, goerror.NewBusiness("Account not allowed", goerror.CodeForbidden)
	}

	return clm, nil
}
