package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HMACSHA256 is a keyed, deterministic Hash. Output is hex encoded so it can
// be used as a lookup key (login challenge tokens) as well as a digest.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	return s.sum(plaintext), nil
}

func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), s.sum(plaintext)) == 1
}

func (s *HMACSHA256) sum(plaintext string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(plaintext))
	sum := mac.Sum(nil)

	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}
