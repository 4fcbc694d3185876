package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type LoginSMSChallengeInput struct {
	ChallengeToken string `validate:"required,max=128"`
}

type SMSChallengeOutput struct {
	Destination string
	ExpiresAt   time.Time
}

// LoginSMSChallenge sends an SMS code to the phone of the account behind a
// pending login challenge.
func (s *Usecase) LoginSMSChallenge(ctx context.Context, in LoginSMSChallengeInput) (*SMSChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginSMSChallenge")
	defer span.End()

	in.ChallengeToken = strings.TrimSpace(in.ChallengeToken)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch, _, err := s.loadLoginChallenge(ctx, in.ChallengeToken)
	if err != nil {
		return nil, err
	}

	acc, err := s.loadAccount(ctx, ch.AccountID)
	if err != nil {
		return nil, err
	}

	return s.requestSMSChallenge(ctx, acc)
}

// ReauthSMSChallenge sends an SMS code to the authenticated caller so it can
// serve as the current second factor of Disable or RegenerateBackupCodes.
func (s *Usecase) ReauthSMSChallenge(ctx context.Context) (*SMSChallengeOutput, error) {
	ctx, span := s.startSpan(ctx, "ReauthSMSChallenge")
	defer span.End()

	acc, err := s.currentAccount(ctx)
	if err != nil {
		return nil, err
	}

	return s.requestSMSChallenge(ctx, acc)
}

// requestSMSChallenge delivers first and persists second, so a gateway
// failure or timeout leaves any earlier state untouched. The destination is
// always the registered phone.
func (s *Usecase) requestSMSChallenge(ctx context.Context, acc *entity.Account) (*SMSChallengeOutput, error) {
	if acc.Phone == "" {
		slog.WarnContext(ctx, "sms challenge requested without phone", "account_id", acc.ID)
		return nil, errNoPhone()
	}

	rec, err := s.loadRecord(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if rec.IsLocked(now) {
		slog.WarnContext(ctx, "sms challenge requested while locked", "account_id", acc.ID)
		return nil, errLocked(rec.LockRemaining(now))
	}
	if !rec.TOTPEnabled {
		slog.WarnContext(ctx, "sms challenge requested while disabled", "account_id", acc.ID)
		return nil, errNotEnabled()
	}

	cooldownKey := "sms:" + strconv.FormatInt(acc.ID, 10)
	ok, err := s.cooldown.Acquire(ctx, cooldownKey, s.smsCooldown())
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire sms cooldown", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		slog.WarnContext(ctx, "sms challenge requested during cooldown", "account_id", acc.ID)
		return nil, errTooManyRequests()
	}

	code, err := s.smsCode.Generate()
	if err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		slog.ErrorContext(ctx, "failed to generate sms code", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(smsDigestInput(acc.ID, code))
	if err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		slog.ErrorContext(ctx, "failed to hash sms code", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.smsTTL()
	sendCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout())
	err = s.gateway.Send(sendCtx, acc.Phone, s.smsMessage(code, ttl))
	cancel()
	if err != nil {
		s.releaseCooldown(ctx, cooldownKey)
		slog.WarnContext(ctx, "notification gateway failed to deliver sms code", "account_id", acc.ID, "error", err)
		return nil, errGatewayUnavailable()
	}

	var out *SMSChallengeOutput
	_, err = s.withRecord(ctx, acc.ID, func(rec *entity.AccountSecurity, now time.Time) error {
		if !rec.TOTPEnabled {
			return errNotEnabled()
		}

		c := entity.SMSChallenge{
			CodeHash:          string(codeHash),
			Destination:       acc.Phone,
			ExpiresAt:         now.Add(ttl),
			AttemptsRemaining: s.smsMaxAttempts(),
		}
		rec.IssueSMSChallenge(c)

		out = &SMSChallengeOutput{Destination: maskPhone(acc.Phone), ExpiresAt: c.ExpiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Usecase) releaseCooldown(ctx context.Context, key string) {
	if err := s.cooldown.Release(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to release sms cooldown", "key", key, "error", err)
	}
}

// maskPhone keeps the last two digits: "+15551234567" becomes "+*********67".
func maskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 2 {
		return strings.Repeat("*", len(r))
	}

	start := 0
	if r[0] == '+' {
		start = 1
	}
	for i := start; i < len(r)-2; i++ {
		r[i] = '*'
	}
	return string(r)
}
