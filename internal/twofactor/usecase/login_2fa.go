package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type Login2FAInput struct {
	ChallengeToken string `validate:"required,max=128"`
	FactorInput
}

type Login2FAOutput struct {
	AccessToken string
	Factor      entity.Factor
}

// Login2FA finishes a login that owes a second factor. The challenge token
// is single use: it is claimed before verification and only put back when
// the factor does not verify.
func (s *Usecase) Login2FA(ctx context.Context, in Login2FAInput) (*Login2FAOutput, error) {
	ctx, span := s.startSpan(ctx, "Login2FA")
	defer span.End()

	in.ChallengeToken = strings.TrimSpace(in.ChallengeToken)
	in.FactorInput.trim()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch, tokenHash, err := s.loadLoginChallenge(ctx, in.ChallengeToken)
	if err != nil {
		return nil, err
	}

	acc, err := s.loadAccount(ctx, ch.AccountID)
	if err != nil {
		return nil, err
	}

	// Claim the token first so concurrent requests on one challenge cannot
	// each spend a factor. A failed verification hands it back.
	consumed, err := s.challenges.DeleteLoginChallenge(ctx, tokenHash)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete login challenge", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "login challenge already consumed", "account_id", acc.ID)
		return nil, errInvalidChallenge()
	}

	var v verification
	saved, err := s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		return s.verify(ctx, rec, in.FactorInput, now, &v)
	})
	s.afterVerification(ctx, acc, saved, &v)
	if err != nil {
		s.restoreLoginChallenge(ctx, tokenHash, *ch)
		return nil, err
	}

	token, err := s.issueAccessToken(ctx, acc, jwt.MethodPassword, amr(v.factor), jwt.MethodMFA)
	if err != nil {
		return nil, err
	}

	return &Login2FAOutput{AccessToken: token, Factor: v.factor}, nil
}

func (s *Usecase) restoreLoginChallenge(ctx context.Context, tokenHash string, ch entity.LoginChallenge) {
	if err := s.challenges.CreateLoginChallenge(ctx, tokenHash, ch); err != nil {
		slog.WarnContext(ctx, "failed to restore login challenge", "account_id", ch.AccountID, "error", err)
	}
}
