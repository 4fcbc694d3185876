package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when plaintext plus pepper exceeds bcrypt's 72 byte input.
var ErrPasswordTooLong = errors.New("hash: password exceeds 72 bytes")

// Bcrypt verifies account passwords. The pepper is appended to plaintext and
// lives in configuration, never in the database.
type Bcrypt struct {
	cost   int
	pepper string
}

func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	if len(plaintext)+len(h.pepper) > 72 {
		return nil, ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	if hashed == "" || plaintext == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper)) == nil
}
