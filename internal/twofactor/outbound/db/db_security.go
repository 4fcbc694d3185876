package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type backupCodeRow struct {
	Hash string `json:"hash"`
	Used bool   `json:"used"`
}

type smsChallengeRow struct {
	CodeHash          string    `json:"code_hash"`
	Destination       string    `json:"destination"`
	ExpiresAt         time.Time `json:"expires_at"`
	AttemptsRemaining int       `json:"attempts_remaining"`
}

const selectSecurity = `
SELECT account_id, totp_enabled, totp_secret, pending_secret, backup_codes, sms_challenge,
       failed_attempts, locked_until, trusted_devices, version, updated_at
FROM account_security
WHERE account_id = $1`

const insertSecurity = `
INSERT INTO account_security (
    account_id, totp_enabled, totp_secret, pending_secret, backup_codes, sms_challenge,
    failed_attempts, locked_until, trusted_devices, version, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, $10)
ON CONFLICT (account_id) DO NOTHING`

const updateSecurity = `
UPDATE account_security SET
    totp_enabled = $2,
    totp_secret = $3,
    pending_secret = $4,
    backup_codes = $5,
    sms_challenge = $6,
    failed_attempts = $7,
    locked_until = $8,
    trusted_devices = $9,
    updated_at = $10,
    version = version + 1
WHERE account_id = $1 AND version = $11`

func (s *DB) GetSecurity(ctx context.Context, accountID int64) (_ *entity.AccountSecurity, err error) {
	ctx, span := s.startSpan(ctx, "GetSecurity")
	defer func() { s.endSpan(span, err) }()

	var (
		rec         entity.AccountSecurity
		backupCodes []byte
		smsRaw      []byte
	)
	err = s.conn.QueryRow(ctx, selectSecurity, accountID).Scan(
		&rec.AccountID,
		&rec.TOTPEnabled,
		&rec.TOTPSecret,
		&rec.PendingSecret,
		&backupCodes,
		&smsRaw,
		&rec.FailedAttempts,
		&rec.LockedUntil,
		&rec.TrustedDevices,
		&rec.Version,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	var codes []backupCodeRow
	if err = json.Unmarshal(backupCodes, &codes); err != nil {
		return nil, err
	}
	for _, c := range codes {
		rec.BackupCodes = append(rec.BackupCodes, entity.BackupCode{Hash: c.Hash, Used: c.Used})
	}

	if len(smsRaw) > 0 {
		var row smsChallengeRow
		if err = json.Unmarshal(smsRaw, &row); err != nil {
			return nil, err
		}
		rec.SMSChallenge = &entity.SMSChallenge{
			CodeHash:          row.CodeHash,
			Destination:       row.Destination,
			ExpiresAt:         row.ExpiresAt,
			AttemptsRemaining: row.AttemptsRemaining,
		}
	}

	return &rec, nil
}

// SaveSecurity writes rec only while the stored version still equals
// rec.Version. A version of zero inserts. Zero affected rows means another
// writer got there first and is reported as goerror.ErrConflict.
func (s *DB) SaveSecurity(ctx context.Context, rec *entity.AccountSecurity) (err error) {
	ctx, span := s.startSpan(ctx, "SaveSecurity")
	defer func() { s.endSpan(span, err) }()

	if err = rec.Validate(); err != nil {
		return err
	}

	codes := make([]backupCodeRow, 0, len(rec.BackupCodes))
	for _, c := range rec.BackupCodes {
		codes = append(codes, backupCodeRow{Hash: c.Hash, Used: c.Used})
	}
	backupCodes, err := json.Marshal(codes)
	if err != nil {
		return err
	}

	var smsRaw []byte
	if c := rec.SMSChallenge; c != nil {
		smsRaw, err = json.Marshal(smsChallengeRow{
			CodeHash:          c.CodeHash,
			Destination:       c.Destination,
			ExpiresAt:         c.ExpiresAt,
			AttemptsRemaining: c.AttemptsRemaining,
		})
		if err != nil {
			return err
		}
	}

	trusted := rec.TrustedDevices
	if trusted == nil {
		trusted = []string{}
	}

	args := []any{
		rec.AccountID,
		rec.TOTPEnabled,
		nullBytes(rec.TOTPSecret),
		nullBytes(rec.PendingSecret),
		backupCodes,
		nullBytes(smsRaw),
		rec.FailedAttempts,
		rec.LockedUntil,
		trusted,
		rec.UpdatedAt,
	}

	query := insertSecurity
	if rec.Version != 0 {
		query = updateSecurity
		args = append(args, rec.Version)
	}

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	rec.Version++
	return nil
}

// nullBytes keeps empty slices as SQL NULL so the CHECK constraints see
// the same shape the entity does.
func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
