package usecase

import (
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

const (
	defaultSMSTTL            = 5 * time.Minute
	defaultSMSMaxAttempts    = 3
	defaultSMSCooldown       = 30 * time.Second
	defaultSMSTemplate       = "Your CampusGuard verification code is {code}. It expires in {minutes} minutes."
	defaultLoginChallengeTTL = 5 * time.Minute
	defaultGatewayTimeout    = 5 * time.Second
)

// Settings are read per request so a config reload applies without a restart.

func (s *Usecase) lockoutPolicy() entity.LockoutPolicy {
	return entity.LockoutPolicy{
		Threshold: s.cfg.GetInt("modules.twofactor.lockout.threshold"),
		Duration:  s.cfg.GetMinute("modules.twofactor.lockout.duration_minutes"),
	}.Normalize()
}

func (s *Usecase) smsTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.twofactor.sms.ttl_minutes"); d > 0 {
		return d
	}
	return defaultSMSTTL
}

func (s *Usecase) smsMaxAttempts() int {
	if n := s.cfg.GetInt("modules.twofactor.sms.max_attempts"); n > 0 {
		return n
	}
	return defaultSMSMaxAttempts
}

func (s *Usecase) smsCooldown() time.Duration {
	if d := s.cfg.GetSecond("modules.twofactor.sms.resend_cooldown_seconds"); d > 0 {
		return d
	}
	return defaultSMSCooldown
}

func (s *Usecase) smsMessage(code string, ttl time.Duration) string {
	tpl := s.cfg.GetString("modules.twofactor.sms.message_template")
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultSMSTemplate
	}

	return strings.NewReplacer(
		"{code}", code,
		"{minutes}", strconv.Itoa(int(ttl/time.Minute)),
	).Replace(tpl)
}

func (s *Usecase) loginChallengeTTL() time.Duration {
	if d := s.cfg.GetMinute("modules.twofactor.login.challenge_ttl_minutes"); d > 0 {
		return d
	}
	return defaultLoginChallengeTTL
}

func (s *Usecase) gatewayTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.twofactor.gateway.timeout_seconds"); d > 0 {
		return d
	}
	return defaultGatewayTimeout
}
