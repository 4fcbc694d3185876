// Package uid generates identifiers: snowflake numbers for records, UUIDv7
// strings for correlation and token ids, and opaque random tokens for
// short-lived login challenges.
package uid

// NumberID generates sortable numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}
