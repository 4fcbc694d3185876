package entity

import "errors"

// Domain error kinds. Usecases wrap them in goerror values so callers can
// still match them with errors.Is.
var (
	ErrAlreadyEnabled     = errors.New("twofactor: already enabled")
	ErrNotEnabled         = errors.New("twofactor: not enabled")
	ErrNoPendingSetup     = errors.New("twofactor: no pending setup")
	ErrInvalidCode        = errors.New("twofactor: invalid code")
	ErrReauthRequired     = errors.New("twofactor: re-authentication required")
	ErrInvalidRequest     = errors.New("twofactor: invalid request")
	ErrAccountLocked      = errors.New("twofactor: account locked")
	ErrChallengeExpired   = errors.New("twofactor: challenge expired")
	ErrGatewayUnavailable = errors.New("twofactor: gateway unavailable")
	ErrConflict           = errors.New("twofactor: conflict")
)

// ErrInvariant is returned by Validate when a record is internally inconsistent.
var ErrInvariant = errors.New("twofactor: record invariant violated")
