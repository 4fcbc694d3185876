package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams tunes the Argon2id cost.
type Argon2idParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MaxConcurrent bounds simultaneous derivations; 0 disables the limiter.
	MaxConcurrent int
}

// DefaultArgon2idParams is sized for interactive verification of a handful of codes.
var DefaultArgon2idParams = Argon2idParams{
	Memory:        32 * 1024,
	Iterations:    3,
	Parallelism:   2,
	SaltLength:    16,
	KeyLength:     32,
	MaxConcurrent: 4,
}

// Argon2id implements Hash with the PHC-style "$argon2id$" encoding.
type Argon2id struct {
	params Argon2idParams
	pepper string
	sem    chan struct{}
}

// NewArgon2id returns an Argon2id hasher using DefaultArgon2idParams.
func NewArgon2id(pepper string) *Argon2id {
	return NewArgon2idWithParams(pepper, DefaultArgon2idParams)
}

func NewArgon2idWithParams(pepper string, p Argon2idParams) *Argon2id {
	a := &Argon2id{params: p, pepper: pepper}
	if p.MaxConcurrent > 0 {
		a.sem = make(chan struct{}, p.MaxConcurrent)
	}
	return a
}

func (a *Argon2id) derive(plaintext string, salt []byte, t, m uint32, p uint8, keyLen uint32) []byte {
	if a.sem != nil {
		a.sem <- struct{}{}
		defer func() { <-a.sem }()
	}
	return argon2.IDKey([]byte(plaintext+a.pepper), salt, t, m, p, keyLen)
}

// Hash returns the encoded Argon2id digest of plaintext with a fresh salt.
func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: generate salt: %w", err)
	}

	key := a.derive(plaintext, salt, a.params.Iterations, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Appendf(nil,
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.Memory,
		a.params.Iterations,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches hashed. Parameters are read back
// from the encoding so digests survive a cost change.
func (a *Argon2id) Verify(hashed, plaintext string) bool {
	if hashed == "" || plaintext == "" {
		return false
	}

	parts := strings.Split(hashed, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var (
		memory, iterations uint32
		parallelism        uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := a.derive(plaintext, salt, iterations, memory, parallelism, uint32(len(want)))

	return subtle.ConstantTimeCompare(want, got) == 1
}
