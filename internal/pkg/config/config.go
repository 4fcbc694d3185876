package config

import (
	"io"
	"time"
)

// Config is the read side of application configuration. Missing keys yield
// zero values; callers that need a default register it with SetDefault on
// the implementation before reading.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetFloat64(key string) float64

	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	// GetBinary decodes a base64 value.
	GetBinary(key string) []byte
	// GetArray reads a YAML list or a "a,b,c" string.
	GetArray(key string) []string
	// GetMap reads a YAML mapping or a "k:v,k:v" string.
	GetMap(key string) map[string]string
}
