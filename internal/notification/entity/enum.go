package entity

import "strings"

type DeliveryStatus int16

const (
	DeliveryStatusUnknown DeliveryStatus = 0
	DeliveryStatusQueued  DeliveryStatus = 1
	DeliveryStatusSent    DeliveryStatus = 2
	DeliveryStatusFailed  DeliveryStatus = 3
	DeliveryStatusSkipped DeliveryStatus = 4
)

func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	case DeliveryStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// TriggerKey selects the alert template. It mirrors the security event type.
type TriggerKey string

const (
	TriggerKeyTwoFactorEnabled       TriggerKey = "two_factor_enabled"
	TriggerKeyTwoFactorDisabled      TriggerKey = "two_factor_disabled"
	TriggerKeyBackupCodesRegenerated TriggerKey = "backup_codes_regenerated"
	TriggerKeyAccountLocked          TriggerKey = "account_locked"
	TriggerKeyAccountUnlocked        TriggerKey = "account_unlocked"
	TriggerKeyTwoFactorReset         TriggerKey = "two_factor_reset"
)

var triggerKeys = []TriggerKey{
	TriggerKeyTwoFactorEnabled,
	TriggerKeyTwoFactorDisabled,
	TriggerKeyBackupCodesRegenerated,
	TriggerKeyAccountLocked,
	TriggerKeyAccountUnlocked,
	TriggerKeyTwoFactorReset,
}

// TriggerKeyFromEventType returns false for event types that carry no alert.
func TriggerKeyFromEventType(raw string) (TriggerKey, bool) {
	raw = strings.TrimSpace(raw)
	for _, tk := range triggerKeys {
		if string(tk) == raw {
			return tk, true
		}
	}
	return "", false
}

func (tk TriggerKey) String() string {
	return string(tk)
}
