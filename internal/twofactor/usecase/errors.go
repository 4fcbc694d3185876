package usecase

import (
	"math"
	"strconv"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

// Rejection messages do not vary with the factor that failed.
const (
	msgInvalidCode        = "invalid verification code"
	msgInvalidCredentials = "invalid email or password"
	msgInvalidChallenge   = "invalid challenge session or code"
	msgLocked             = "account is temporarily locked"
	msgReauthRequired     = "password and a current second factor are required"
)

func errAuthRequired() error {
	return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
}

func errInvalidCode() error {
	return goerror.NewBusinessCause(entity.ErrInvalidCode, msgInvalidCode, goerror.CodeUnauthorized)
}

func errInvalidCredentials() error {
	return goerror.NewBusinessCause(entity.ErrInvalidCode, msgInvalidCredentials, goerror.CodeUnauthorized)
}

func errInvalidChallenge() error {
	return goerror.NewBusinessCause(entity.ErrInvalidCode, msgInvalidChallenge, goerror.CodeUnauthorized)
}

// errLocked carries the remaining lock as whole seconds, rounded up so a
// client that waits that long is never rejected again.
func errLocked(remaining time.Duration) error {
	secs := int64(math.Ceil(remaining.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return goerror.NewBusinessCause(entity.ErrAccountLocked, msgLocked, goerror.CodeLocked,
		"retry_after_seconds", strconv.FormatInt(secs, 10))
}

func errChallengeExpired() error {
	return goerror.NewBusinessCause(entity.ErrChallengeExpired,
		"verification code has expired, request a new one", goerror.CodeUnauthorized)
}

func errAlreadyEnabled() error {
	return goerror.NewBusinessCause(entity.ErrAlreadyEnabled,
		"two-factor authentication is already enabled", goerror.CodeConflict)
}

func errNotEnabled() error {
	return goerror.NewBusinessCause(entity.ErrNotEnabled,
		"two-factor authentication is not enabled", goerror.CodeConflict)
}

func errNoPendingSetup() error {
	return goerror.NewBusinessCause(entity.ErrNoPendingSetup,
		"no pending two-factor setup, start setup first", goerror.CodeConflict)
}

func errReauthRequired() error {
	return goerror.NewBusinessCause(entity.ErrReauthRequired, msgReauthRequired, goerror.CodeForbidden)
}

func errInvalidRequest() error {
	return goerror.NewBusinessCause(entity.ErrInvalidRequest,
		"exactly one second factor must be supplied", goerror.CodeInvalidInput,
		"factor", "supply exactly one of totp_code, backup_code or sms_code")
}

func errNoPhone() error {
	return goerror.NewBusinessCause(entity.ErrInvalidRequest,
		"no phone number is registered for this account", goerror.CodeInvalidInput)
}

func errGatewayUnavailable() error {
	return goerror.NewBusinessCause(entity.ErrGatewayUnavailable,
		"verification code could not be delivered, try again", goerror.CodeUnavailable)
}

func errTooManyRequests() error {
	return goerror.NewBusiness("verification code was sent recently, wait before requesting another",
		goerror.CodeTooManyRequest)
}

func errConflict() error {
	return goerror.NewBusinessCause(entity.ErrConflict,
		"account security changed concurrently, try again", goerror.CodeConflict)
}

func errAccountNotFound() error {
	return goerror.NewBusiness("account not found", goerror.CodeNotFound)
}
