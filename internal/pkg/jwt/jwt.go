package jwt

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 signing key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token has expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
)

// Authentication methods recorded in the amr claim (RFC 8176).
const (
	MethodPassword = "pwd"
	MethodOTP      = "otp"
	MethodSMS      = "sms"
	MethodRecovery = "rec"
	MethodMFA      = "mfa"
)

// JWT issues and verifies access tokens.
type JWT interface {
	Generate(sub Subject) (string, error)
	Verify(token string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config builds a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Subject is who a token is issued to and how they authenticated.
type Subject struct {
	AccountID int64
	Email     string
	Roles     []string
	Methods   []string
}

// Claims are the registered claims plus the account payload.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64    `json:"account_id,string"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles,omitempty"`
	AMR       []string `json:"amr,omitempty"`
}

// HasRole reports whether role is among the token roles.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

type contextKey struct{}

// GetAuth returns the claims stored by SetAuth, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(contextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, clm)
}
