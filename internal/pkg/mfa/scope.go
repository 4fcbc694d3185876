package mfa

// Purpose separates ciphertexts of different kinds so one can never be
// opened as the other.
type Purpose string

const (
	PurposeTOTPSeed        Purpose = "totp_seed"
	PurposePendingTOTPSeed Purpose = "totp_seed_pending"
)

// Scope is bound into every ciphertext as GCM additional data.
type Scope struct {
	AccountID int64
	Purpose   Purpose
}
