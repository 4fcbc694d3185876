package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

const conflictBackoff = 5 * time.Millisecond

// persisted marks an outcome that changed the record and must be saved
// before it is returned, such as a failed attempt that moved the lockout
// counter.
type persisted struct{ err error }

func (p persisted) Error() string { return p.err.Error() }
func (p persisted) Unwrap() error { return p.err }

func persistThen(err error) error { return persisted{err: err} }

// mutation inspects and changes rec. A plain error aborts without saving; an
// error wrapped by persistThen is returned after rec is saved; nil saves.
type mutation func(rec *entity.AccountSecurity, now time.Time) error

// withRecord runs fn as one load, modify and conditional save. A version
// conflict re-runs the whole mutation on a fresh read once before it is
// reported as Conflict. The saved record is returned whenever a save
// happened, alongside the persisted outcome if any.
func (s *Usecase) withRecord(ctx context.Context, accountID int64, fn mutation) (*entity.AccountSecurity, error) {
	var (
		saved   *entity.AccountSecurity
		outcome error
	)

	backoff := retry.WithMaxRetries(1, retry.NewConstant(conflictBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		saved, outcome = nil, nil

		rec, err := s.loadRecord(ctx, accountID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := fn(rec, now); err != nil {
			var p persisted
			if !errors.As(err, &p) {
				return err
			}
			outcome = p.err
		}

		rec.UpdatedAt = now
		if err := rec.Validate(); err != nil {
			slog.ErrorContext(ctx, "account security record failed validation", "account_id", accountID, "error", err)
			return goerror.NewServer(err)
		}

		err = s.store.SaveSecurity(ctx, rec)
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "account security version conflict", "account_id", accountID, "version", rec.Version)
			return retry.RetryableError(err)
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to save account security", "account_id", accountID, "error", err)
			return goerror.NewServer(err)
		}

		saved = rec
		return nil
	})
	if errors.Is(err, goerror.ErrConflict) {
		return nil, errConflict()
	}
	if err != nil {
		return nil, err
	}

	return saved, outcome
}

// loadRecord returns the stored record, or a fresh one for an account that
// has never touched its security settings.
func (s *Usecase) loadRecord(ctx context.Context, accountID int64) (*entity.AccountSecurity, error) {
	rec, err := s.store.GetSecurity(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.NewAccountSecurity(accountID), nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to load account security", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return rec, nil
}

func (s *Usecase) loadAccount(ctx context.Context, accountID int64) (*entity.Account, error) {
	acc, err := s.accounts.GetAccountByID(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", accountID)
		return nil, errAccountNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return acc, nil
}

// currentAccount resolves the account of the authenticated caller.
func (s *Usecase) currentAccount(ctx context.Context) (*entity.Account, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, errAuthRequired()
	}

	acc, err := s.accounts.GetAccountByID(ctx, clm.AccountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "authenticated account no longer exists", "account_id", clm.AccountID)
		return nil, errAuthRequired()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return acc, nil
}
