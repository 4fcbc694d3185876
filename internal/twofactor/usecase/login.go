package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type LoginInput struct {
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=72"`
}

type LoginOutput struct {
	AccessToken        string
	RequiresTwoFactor  bool
	ChallengeToken     string
	ChallengeExpiresAt time.Time
	Methods            []entity.Factor
}

// Login checks the password and either issues an access token or, when a
// second factor is required, a short-lived challenge token for Login2FA.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.accounts.GetAccountByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		s.bcrypt.Verify(s.timingHash(ctx), in.Password)
		slog.WarnContext(ctx, "login for unknown email", "email", in.Email)
		return nil, errInvalidCredentials()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	var v verification
	saved, err := s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		v = verification{}

		if rec.IsLocked(now) {
			slog.WarnContext(ctx, "login rejected while locked", "account_id", acc.ID)
			return errLocked(rec.LockRemaining(now))
		}

		if !s.bcrypt.Verify(acc.PasswordHash, in.Password) {
			return persistThen(s.recordFailure(ctx, rec, "password", now, &v, errInvalidCredentials()))
		}

		s.lockoutPolicy().RecordSuccess(rec)
		return nil
	})
	s.afterVerification(ctx, acc, saved, &v)
	if err != nil {
		return nil, err
	}

	if !saved.IsChallengeRequired() {
		token, err := s.issueAccessToken(ctx, acc, jwt.MethodPassword)
		if err != nil {
			return nil, err
		}
		return &LoginOutput{AccessToken: token}, nil
	}

	token := s.token.Generate()
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash login challenge token", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ch := entity.LoginChallenge{
		AccountID: acc.ID,
		ExpiresAt: s.clock.Now().Add(s.loginChallengeTTL()),
	}
	if err := s.challenges.CreateLoginChallenge(ctx, string(tokenHash), ch); err != nil {
		slog.ErrorContext(ctx, "failed to create login challenge", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		RequiresTwoFactor:  true,
		ChallengeToken:     token,
		ChallengeExpiresAt: ch.ExpiresAt,
		Methods:            availableMethods(acc, saved),
	}, nil
}

func availableMethods(acc *entity.Account, rec *entity.AccountSecurity) []entity.Factor {
	return lo.Filter([]entity.Factor{
		entity.FactorTOTP,
		entity.FactorBackupCode,
		entity.FactorSMS,
	}, func(f entity.Factor, _ int) bool {
		switch f {
		case entity.FactorBackupCode:
			return rec.UnusedBackupCodes() > 0
		case entity.FactorSMS:
			return acc.Phone != ""
		default:
			return rec.TOTPEnabled
		}
	})
}

// fallbackTimingHash is a cost 12 bcrypt hash used when a fresh timing hash
// cannot be created.
const fallbackTimingHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// timingHash is a hash of a throwaway password, verified against when the
// email is unknown so both paths spend one bcrypt comparison.
func (s *Usecase) timingHash(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		s.dummyHash = fallbackTimingHash

		h, err := s.bcrypt.Hash(s.token.Generate())
		if err != nil {
			slog.ErrorContext(ctx, "failed to create timing hash, using fallback", "error", err)
			return
		}
		s.dummyHash = string(h)
	})
	return s.dummyHash
}

// loadLoginChallenge resolves a plaintext challenge token. Unknown and
// expired tokens are reported the same way.
func (s *Usecase) loadLoginChallenge(ctx context.Context, token string) (*entity.LoginChallenge, string, error) {
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash login challenge token", "error", err)
		return nil, "", goerror.NewServer(err)
	}

	ch, err := s.challenges.GetLoginChallenge(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login challenge not found")
		return nil, "", errInvalidChallenge()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get login challenge", "error", err)
		return nil, "", goerror.NewServer(err)
	}

	if !s.clock.Now().Before(ch.ExpiresAt) {
		slog.WarnContext(ctx, "login challenge expired", "account_id", ch.AccountID)
		return nil, "", errInvalidChallenge()
	}

	return ch, string(tokenHash), nil
}

func (s *Usecase) issueAccessToken(ctx context.Context, acc *entity.Account, methods ...string) (string, error) {
	token, err := s.jwt.Generate(jwt.Subject{
		AccountID: acc.ID,
		Email:     acc.Email,
		Roles:     acc.Roles,
		Methods:   methods,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "account_id", acc.ID, "error", err)
		return "", goerror.NewServer(err)
	}

	return token, nil
}
