package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
modules:
  twofactor:
    sms:
      ttl_minutes: 5
      resend_cooldown_seconds: 30
    lockout:
      threshold: 5
      duration_minutes: 120
    mfa:
      secret: "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8="
    admin:
      roles: "admin, registrar"
      policies:
        admin: "twofactor:*"
    gateway:
      headers: "X-Api-Key:abc,X-Tenant:campus"
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.GetMinute("modules.twofactor.sms.ttl_minutes"))
	assert.Equal(t, 30*time.Second, cfg.GetSecond("modules.twofactor.sms.resend_cooldown_seconds"))
	assert.Equal(t, 2*time.Hour, cfg.GetMinute("modules.twofactor.lockout.duration_minutes"))
	assert.Equal(t, 5, cfg.GetInt("modules.twofactor.lockout.threshold"))
	assert.Len(t, cfg.GetBinary("modules.twofactor.mfa.secret"), 32)
	assert.Equal(t, []string{"admin", "registrar"}, cfg.GetArray("modules.twofactor.admin.roles"))
	assert.Equal(t, map[string]string{"admin": "twofactor:*"}, cfg.GetMap("modules.twofactor.admin.policies"))
	assert.Equal(t, map[string]string{"X-Api-Key": "abc", "X-Tenant": "campus"}, cfg.GetMap("modules.twofactor.gateway.headers"))
	assert.Empty(t, cfg.GetArray("modules.twofactor.missing"))
	assert.NoError(t, cfg.Close())
}

func TestViper_DefaultsAndEnv(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)

	cfg.SetDefault("modules.twofactor.sms.max_attempts", 3)
	assert.Equal(t, 3, cfg.GetInt("modules.twofactor.sms.max_attempts"))

	t.Setenv("CAMPUSGUARD_MODULES_TWOFACTOR_LOCKOUT_THRESHOLD", "7")
	assert.Equal(t, 7, cfg.GetInt("modules.twofactor.lockout.threshold"))
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", nil)
	assert.Error(t, err)
}
