package uid

import (
	"crypto/rand"
	"encoding/base64"
)

// TokenSize is the number of random bytes behind each token.
const TokenSize = 32

// RandomToken generates URL-safe opaque tokens with 256 bits of entropy.
type RandomToken struct{}

func NewRandomToken() *RandomToken {
	return &RandomToken{}
}

// Generate relies on crypto/rand.Read, which does not fail on supported
// platforms.
func (RandomToken) Generate() string {
	b := make([]byte, TokenSize)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
