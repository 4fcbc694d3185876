package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type snapshot struct {
	AccountID      int64         `json:"account_id"`
	TOTPEnabled    bool          `json:"totp_enabled"`
	TOTPSecret     []byte        `json:"totp_secret,omitempty"`
	PendingSecret  []byte        `json:"pending_secret,omitempty"`
	BackupCodes    []backupCode  `json:"backup_codes,omitempty"`
	SMSChallenge   *smsChallenge `json:"sms_challenge,omitempty"`
	FailedAttempts int           `json:"failed_attempts"`
	LockedUntil    *time.Time    `json:"locked_until,omitempty"`
	TrustedDevices []string      `json:"trusted_devices,omitempty"`
	Version        int64         `json:"version"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type backupCode struct {
	Hash string `json:"hash"`
	Used bool   `json:"used"`
}

type smsChallenge struct {
	CodeHash          string    `json:"code_hash"`
	Destination       string    `json:"destination"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsRemaining int       `json:"attempts_remaining"`
}

func toSnapshot(rec *entity.AccountSecurity) snapshot {
	s := snapshot{
		AccountID:      rec.AccountID,
		TOTPEnabled:    rec.TOTPEnabled,
		TOTPSecret:     rec.TOTPSecret,
		PendingSecret:  rec.PendingSecret,
		FailedAttempts: rec.FailedAttempts,
		LockedUntil:    rec.LockedUntil,
		TrustedDevices: rec.TrustedDevices,
		Version:        rec.Version,
		UpdatedAt:      rec.UpdatedAt,
	}
	for _, bc := range rec.BackupCodes {
		s.BackupCodes = append(s.BackupCodes, backupCode{Hash: bc.Hash, Used: bc.Used})
	}
	if ch := rec.SMSChallenge; ch != nil {
		s.SMSChallenge = &smsChallenge{
			CodeHash:          ch.CodeHash,
			Destination:       ch.Destination,
			ExpiresAt:         ch.ExpiresAt,
			AttemptsRemaining: ch.AttemptsRemaining,
		}
	}
	return s
}

func (s snapshot) record() *entity.AccountSecurity {
	rec := &entity.AccountSecurity{
		AccountID:      s.AccountID,
		TOTPEnabled:    s.TOTPEnabled,
		TOTPSecret:     s.TOTPSecret,
		PendingSecret:  s.PendingSecret,
		FailedAttempts: s.FailedAttempts,
		LockedUntil:    s.LockedUntil,
		TrustedDevices: s.TrustedDevices,
		Version:        s.Version,
		UpdatedAt:      s.UpdatedAt,
	}
	for _, bc := range s.BackupCodes {
		rec.BackupCodes = append(rec.BackupCodes, entity.BackupCode{Hash: bc.Hash, Used: bc.Used})
	}
	if ch := s.SMSChallenge; ch != nil {
		rec.SMSChallenge = &entity.SMSChallenge{
			CodeHash:          ch.CodeHash,
			Destination:       ch.Destination,
			ExpiresAt:         ch.ExpiresAt,
			AttemptsRemaining: ch.AttemptsRemaining,
		}
	}
	return rec
}

func securityKey(accountID int64) string {
	return securityPrefix + strconv.FormatInt(accountID, 10)
}

func (c *Cache) GetSecurity(ctx context.Context, accountID int64) (_ *entity.AccountSecurity, err error) {
	ctx, span := c.startSpan(ctx, "GetSecurity")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, securityKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err = json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}

	return snap.record(), nil
}

// SaveSecurity writes rec while the stored version still equals rec.Version.
// The key is watched between the version check and the write, so a
// concurrent writer aborts the transaction and this call reports
// goerror.ErrConflict.
func (c *Cache) SaveSecurity(ctx context.Context, rec *entity.AccountSecurity) (err error) {
	ctx, span := c.startSpan(ctx, "SaveSecurity")
	defer func() { c.endSpan(span, err) }()

	if err = rec.Validate(); err != nil {
		return err
	}

	key := securityKey(rec.AccountID)
	next := toSnapshot(rec)
	next.Version = rec.Version + 1
	payload, err := json.Marshal(next)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != rec.Version {
			return goerror.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return goerror.ErrConflict
	}
	if err != nil {
		return err
	}

	rec.Version = next.Version
	return nil
}

// storedVersion returns zero when no record exists.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var v struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	return v.Version, nil
}
