package usecase

import (
	"strings"

	"github.com/shandysiswandi/campusguard/internal/notification/entity"
)

const alertFooter = `<p>If this was not you, contact {{.support_email}} right away.</p>
<p>{{.company_name}} &copy; {{.year}}</p>`

var defaultTemplates = map[entity.TriggerKey]entity.Template{
	entity.TriggerKeyTwoFactorEnabled: {
		Subject: "Two-factor authentication turned on",
		Body:    `<p>Hi {{.full_name}},</p><p>Two-factor authentication was turned on for your account at {{.occurred_at}}.</p>` + alertFooter,
	},
	entity.TriggerKeyTwoFactorDisabled: {
		Subject: "Two-factor authentication turned off",
		Body:    `<p>Hi {{.full_name}},</p><p>Two-factor authentication was turned off for your account at {{.occurred_at}}.</p>` + alertFooter,
	},
	entity.TriggerKeyBackupCodesRegenerated: {
		Subject: "New backup codes generated",
		Body:    `<p>Hi {{.full_name}},</p><p>A new set of backup codes was generated at {{.occurred_at}}. Your previous codes no longer work.</p>` + alertFooter,
	},
	entity.TriggerKeyAccountLocked: {
		Subject: "Your account is temporarily locked",
		Body:    `<p>Hi {{.full_name}},</p><p>Too many failed sign-in attempts locked your account until {{.locked_until}}.</p>` + alertFooter,
	},
	entity.TriggerKeyAccountUnlocked: {
		Subject: "Your account was unlocked",
		Body:    `<p>Hi {{.full_name}},</p><p>A security administrator unlocked your account at {{.occurred_at}}.</p>` + alertFooter,
	},
	entity.TriggerKeyTwoFactorReset: {
		Subject: "Two-factor authentication was reset",
		Body:    `<p>Hi {{.full_name}},</p><p>A security administrator reset two-factor authentication on your account at {{.occurred_at}}. Sign in and enroll again.</p>` + alertFooter,
	},
}

// template returns the configured subject and body for tk, falling back to
// the built-in text field by field.
func (s *Usecase) template(tk entity.TriggerKey) entity.Template {
	tpl := defaultTemplates[tk]

	prefix := "modules.notification.templates." + tk.String()
	if v := strings.TrimSpace(s.cfg.GetString(prefix + ".subject")); v != "" {
		tpl.Subject = v
	}
	if v := strings.TrimSpace(s.cfg.GetString(prefix + ".body")); v != "" {
		tpl.Body = v
	}

	return tpl
}
