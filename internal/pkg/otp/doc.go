// Package otp holds the one-time code primitives: RFC 6238 TOTP secrets,
// provisioning URIs and codes (backed by github.com/pquerna/otp), and short
// random numeric codes for out-of-band delivery.
package otp
