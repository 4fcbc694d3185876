package entity

import (
	"fmt"
	"slices"
	"time"
)

// BackupCode is one entry of a recovery batch. Only the hash is stored.
type BackupCode struct {
	Hash string
	Used bool
}

// SMSChallenge is the single outstanding SMS code of an account.
type SMSChallenge struct {
	CodeHash          string
	Destination       string
	ExpiresAt         time.Time
	AttemptsRemaining int
}

// Live reports whether the challenge can still be answered at now.
func (c *SMSChallenge) Live(now time.Time) bool {
	return c != nil && c.AttemptsRemaining > 0 && now.Before(c.ExpiresAt)
}

// AccountSecurity is the per-account record of enrollment state, recovery
// codes, the SMS challenge and lockout counters.
//
// TOTPSecret and PendingSecret are sealed ciphertexts. A secret sits in
// PendingSecret from BeginSetup until CompleteSetup promotes it, so an
// unconfirmed secret can never verify a login.
type AccountSecurity struct {
	AccountID      int64
	TOTPEnabled    bool
	TOTPSecret     []byte
	PendingSecret  []byte
	BackupCodes    []BackupCode
	SMSChallenge   *SMSChallenge
	FailedAttempts int
	LockedUntil    *time.Time
	TrustedDevices []string

	// Version is the optimistic concurrency token. Zero means the record has
	// never been saved.
	Version   int64
	UpdatedAt time.Time
}

// NewAccountSecurity returns the empty record created alongside an account.
func NewAccountSecurity(accountID int64) *AccountSecurity {
	return &AccountSecurity{AccountID: accountID}
}

// State derives the enrollment state.
func (a *AccountSecurity) State() EnrollmentState {
	switch {
	case a.TOTPEnabled:
		return StateEnabled
	case len(a.PendingSecret) > 0:
		return StatePendingVerification
	default:
		return StateDisabled
	}
}

// IsChallengeRequired reports whether login must ask for a second factor.
func (a *AccountSecurity) IsChallengeRequired() bool {
	return a.TOTPEnabled
}

// Validate checks the record invariants. Stores refuse to persist a record
// that fails it.
func (a *AccountSecurity) Validate() error {
	if a.AccountID <= 0 {
		return fmt.Errorf("%w: account id is required", ErrInvariant)
	}
	if a.TOTPEnabled != (len(a.TOTPSecret) > 0) {
		return fmt.Errorf("%w: totp secret must exist exactly while enabled", ErrInvariant)
	}
	if a.TOTPEnabled && len(a.PendingSecret) > 0 {
		return fmt.Errorf("%w: pending secret must be empty while enabled", ErrInvariant)
	}
	if a.FailedAttempts < 0 {
		return fmt.Errorf("%w: failed attempts is negative", ErrInvariant)
	}

	seen := make(map[string]struct{}, len(a.BackupCodes))
	for _, bc := range a.BackupCodes {
		if bc.Hash == "" {
			return fmt.Errorf("%w: empty backup code hash", ErrInvariant)
		}
		if _, dup := seen[bc.Hash]; dup {
			return fmt.Errorf("%w: duplicate backup code hash", ErrInvariant)
		}
		seen[bc.Hash] = struct{}{}
	}

	if c := a.SMSChallenge; c != nil {
		if c.CodeHash == "" || c.Destination == "" || c.AttemptsRemaining <= 0 {
			return fmt.Errorf("%w: malformed sms challenge", ErrInvariant)
		}
	}

	return nil
}

// BeginSetup stores a new pending secret, replacing any earlier one.
func (a *AccountSecurity) BeginSetup(sealedPending []byte) error {
	if a.TOTPEnabled {
		return ErrAlreadyEnabled
	}
	a.PendingSecret = slices.Clone(sealedPending)
	return nil
}

// CompleteSetup promotes the confirmed secret and installs a fresh backup
// code batch. sealedActive is the pending secret resealed for active use.
func (a *AccountSecurity) CompleteSetup(sealedActive []byte, backupHashes []string) error {
	if a.TOTPEnabled {
		return ErrAlreadyEnabled
	}
	if len(a.PendingSecret) == 0 {
		return ErrNoPendingSetup
	}

	a.TOTPSecret = slices.Clone(sealedActive)
	a.TOTPEnabled = true
	a.PendingSecret = nil
	a.ReplaceBackupCodes(backupHashes)
	return nil
}

// Disable clears every second-factor artefact. Lockout state is kept.
func (a *AccountSecurity) Disable() {
	a.TOTPEnabled = false
	a.TOTPSecret = nil
	a.PendingSecret = nil
	a.BackupCodes = nil
	a.SMSChallenge = nil
}

// ReplaceBackupCodes swaps the whole batch; earlier codes stop working.
func (a *AccountSecurity) ReplaceBackupCodes(hashes []string) {
	codes := make([]BackupCode, 0, len(hashes))
	for _, h := range hashes {
		codes = append(codes, BackupCode{Hash: h})
	}
	a.BackupCodes = codes
}

// UnusedBackupCodes counts codes that can still be redeemed.
func (a *AccountSecurity) UnusedBackupCodes() int {
	n := 0
	for _, bc := range a.BackupCodes {
		if !bc.Used {
			n++
		}
	}
	return n
}

// RedeemBackupCode marks the first unused code accepted by match as used.
// match is called for every unused code so the cost does not depend on
// which entry matched.
func (a *AccountSecurity) RedeemBackupCode(match func(hash string) bool) bool {
	found := -1
	for i, bc := range a.BackupCodes {
		if bc.Used {
			continue
		}
		if match(bc.Hash) && found < 0 {
			found = i
		}
	}
	if found < 0 {
		return false
	}
	a.BackupCodes[found].Used = true
	return true
}

// IssueSMSChallenge installs c, discarding any earlier challenge.
func (a *AccountSecurity) IssueSMSChallenge(c SMSChallenge) {
	a.SMSChallenge = &c
}

// LiveSMSChallenge returns the outstanding challenge, first discarding it
// when it has expired or run out of attempts.
func (a *AccountSecurity) LiveSMSChallenge(now time.Time) *SMSChallenge {
	if a.SMSChallenge != nil && !a.SMSChallenge.Live(now) {
		a.SMSChallenge = nil
	}
	return a.SMSChallenge
}

// AnswerSMSChallenge applies one attempt. A match clears the challenge; a
// miss burns an attempt and drops the challenge once none remain. It returns
// ErrChallengeExpired when no live challenge exists.
func (a *AccountSecurity) AnswerSMSChallenge(now time.Time, match func(hash string) bool) (bool, error) {
	c := a.LiveSMSChallenge(now)
	if c == nil {
		return false, ErrChallengeExpired
	}

	if match(c.CodeHash) {
		a.SMSChallenge = nil
		return true, nil
	}

	c.AttemptsRemaining--
	if c.AttemptsRemaining <= 0 {
		a.SMSChallenge = nil
	}
	return false, nil
}

// Clone returns a deep copy.
func (a *AccountSecurity) Clone() *AccountSecurity {
	if a == nil {
		return nil
	}

	out := *a
	out.TOTPSecret = slices.Clone(a.TOTPSecret)
	out.PendingSecret = slices.Clone(a.PendingSecret)
	out.BackupCodes = slices.Clone(a.BackupCodes)
	out.TrustedDevices = slices.Clone(a.TrustedDevices)
	if a.SMSChallenge != nil {
		c := *a.SMSChallenge
		out.SMSChallenge = &c
	}
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		out.LockedUntil = &t
	}
	return &out
}
