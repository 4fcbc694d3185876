package otp

import (
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// SecretSize is the raw TOTP secret length in bytes (160 bits).
const SecretSize = 20

var ErrEmptyAccountName = errors.New("otp: account name is required")

// Key is a freshly generated TOTP secret.
type Key struct {
	// Secret is the Base32 encoding shown to users who cannot scan a QR code.
	Secret string
	// URI is the otpauth:// provisioning URI rendered as a QR code.
	URI string
}

// OTP is the TOTP contract used by enrollment and verification.
type OTP interface {
	Generate(accountName string) (Key, error)
	Validate(code, secret string, at time.Time) bool
	GenerateCode(secret string, at time.Time) (string, error)
	Period() time.Duration
}

// TOTP implements OTP with HMAC-SHA1 over 30 second (by default) windows.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP builds a TOTP. A zero period means 30 seconds; digits other than
// 6 or 8 fall back to 6. skew is the number of adjacent windows accepted on
// each side of the current one; zero means 1.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	if skew == 0 {
		skew = 1
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

func (o *TOTP) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Generate creates a random secret bound to accountName.
func (o *TOTP) Generate(accountName string) (Key, error) {
	if accountName == "" {
		return Key{}, ErrEmptyAccountName
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  SecretSize,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Key{}, err
	}

	return Key{Secret: key.Secret(), URI: key.URL()}, nil
}

// Validate reports whether code matches the window containing at, or one of
// the skew windows around it.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	if len(code) != o.digits.Length() {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at, o.opts())
	return ok && err == nil
}

// GenerateCode computes the code for the window containing at.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts())
}

func (o *TOTP) Period() time.Duration {
	return time.Duration(o.period) * time.Second
}
