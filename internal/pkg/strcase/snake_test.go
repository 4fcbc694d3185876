package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"AccountID":      "account_id",
		"TOTPCode":       "totp_code",
		"SMSCode":        "sms_code",
		"lockedUntil":    "locked_until",
		"Version2":       "version2",
		"HTTPServerAddr": "http_server_addr",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
