package entity

// Factor is a second-factor kind.
type Factor string

const (
	FactorUnknown    Factor = ""
	FactorTOTP       Factor = "totp"
	FactorBackupCode Factor = "backup_code"
	FactorSMS        Factor = "sms"
)

func (f Factor) String() string {
	if f == FactorUnknown {
		return "unknown"
	}
	return string(f)
}

// EnrollmentState is derived from the record, never stored.
type EnrollmentState int8

const (
	StateDisabled EnrollmentState = iota
	StatePendingVerification
	StateEnabled
)

func (s EnrollmentState) String() string {
	switch s {
	case StatePendingVerification:
		return "pending_verification"
	case StateEnabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// EventType names a security event published to the broker.
type EventType string

const (
	EventTwoFactorEnabled      EventType = "two_factor_enabled"
	EventTwoFactorDisabled     EventType = "two_factor_disabled"
	EventBackupCodesRegenerate EventType = "backup_codes_regenerated"
	EventAccountLocked         EventType = "account_locked"
	EventAccountUnlocked       EventType = "account_unlocked"
	EventTwoFactorReset        EventType = "two_factor_reset"
)
