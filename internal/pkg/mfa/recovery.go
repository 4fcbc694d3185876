package mfa

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// recoveryAlphabet drops 0/O, 1/I/L and U so codes survive being read aloud.
const recoveryAlphabet = "23456789ABCDEFGHJKMNPQRSTVWXYZ"

const groupSize = 4

// Recovery code lengths accepted by the request validator's backupcode rule:
// two to four groups.
const (
	MinRecoveryLength = 2 * groupSize
	MaxRecoveryLength = 4 * groupSize
)

var ErrInvalidRecoveryConfig = errors.New("mfa: recovery code count must be positive and length a multiple of 4 between 8 and 16")

// RecoveryCodeGenerator issues batches of single-use backup codes.
type RecoveryCodeGenerator interface {
	Generate() ([]string, error)
}

// RecoveryCode produces codes like "7KQM-X2PD": length random characters,
// grouped by four for display.
type RecoveryCode struct {
	count  int
	length int
}

func NewRecoveryCode(count, length int) (*RecoveryCode, error) {
	if count <= 0 || length < MinRecoveryLength || length > MaxRecoveryLength || length%groupSize != 0 {
		return nil, ErrInvalidRecoveryConfig
	}
	return &RecoveryCode{count: count, length: length}, nil
}

// Generate returns count distinct codes.
func (rc *RecoveryCode) Generate() ([]string, error) {
	out := make([]string, 0, rc.count)
	seen := make(map[string]struct{}, rc.count)

	for len(out) < rc.count {
		raw, err := randomString(rc.length)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		out = append(out, group(raw))
	}

	return out, nil
}

// NormalizeRecoveryCode strips separators and whitespace and upper-cases
// input so "7kqm x2pd" and "7KQM-X2PD" verify alike.
func NormalizeRecoveryCode(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))
	for _, r := range strings.ToUpper(code) {
		if r == '-' || r == ' ' || r == '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func group(raw string) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i += groupSize {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.WriteString(raw[i:min(i+groupSize, len(raw))])
	}
	return sb.String()
}

func randomString(n int) (string, error) {
	limit := big.NewInt(int64(len(recoveryAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b[i] = recoveryAlphabet[idx.Int64()]
	}
	return string(b), nil
}
