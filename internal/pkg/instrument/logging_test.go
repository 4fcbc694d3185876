package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	base := slog.NewJSONHandler(buf, &slog.HandlerOptions{ReplaceAttr: replaceAttr})
	return slog.New(newLogHandler(base, "campusguard", []string{"phone"}))
}

func TestLogHandler_MasksSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf)

	ctx := SetCorrelationID(context.Background(), "cid-1")
	log.InfoContext(ctx, "verify",
		"account_id", 42,
		"totp_code", "123456",
		"phone", "+6281",
		"body", `{"backup_code":"7KQM-X2PD","factor":"backup_code"}`,
		slog.Group("req", slog.String("password", "hunter2")),
	)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "cid-1", got["_cID"])
	assert.Equal(t, "campusguard", got["service"])
	assert.Equal(t, "INFO", got["severity"])
	assert.EqualValues(t, 42, got["account_id"])
	assert.Equal(t, masked, got["totp_code"])
	assert.Equal(t, masked, got["phone"])
	assert.Equal(t, masked, got["req"].(map[string]any)["password"])
	assert.JSONEq(t, `{"backup_code":"***","factor":"backup_code"}`, got["body"].(string))
}

func TestLogHandler_WithAttrsMasks(t *testing.T) {
	var buf bytes.Buffer
	log := captureLogger(&buf).With("secret", "JBSWY3DP")

	log.Info("x")

	assert.NotContains(t, buf.String(), "JBSWY3DP")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestCorrelationID(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
	assert.Equal(t, "abc", GetCorrelationID(SetCorrelationID(context.Background(), "abc")))
}

func TestNoop(t *testing.T) {
	ins := NewNoop()
	_, span := ins.Tracer("t").Start(context.Background(), "op")
	span.End()
	_, err := ins.Meter("m").Int64Counter("c")
	assert.NoError(t, err)
	assert.NoError(t, ins.Shutdown(context.Background()))
}
