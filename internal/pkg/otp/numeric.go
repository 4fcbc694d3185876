package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// Code lengths accepted by the request validator's otpcode rule.
const (
	MinCodeLength = 6
	MaxCodeLength = 8
)

var ErrInvalidCodeLength = errors.New("otp: code length must be between 6 and 8")

// Numeric generates zero-padded random decimal codes of a fixed length.
type Numeric struct {
	length int
}

func NewNumeric(length int) (*Numeric, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return nil, ErrInvalidCodeLength
	}
	return &Numeric{length: length}, nil
}

// Generate returns a uniformly random code in [0, 10^length).
func (n *Numeric) Generate() (string, error) {
	return GenerateNumericCode(n.length)
}

// GenerateNumericCode returns a uniformly random decimal string of length digits.
func GenerateNumericCode(length int) (string, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return "", ErrInvalidCodeLength
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}

	s := v.String()
	if pad := length - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s, nil
}

// IsNumeric reports whether s is exactly length ASCII digits.
func IsNumeric(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
