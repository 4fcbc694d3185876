package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

const selectAccount = `
SELECT id, email, full_name, password_hash, phone, roles
FROM campus_accounts`

func (s *DB) GetAccountByID(ctx context.Context, id int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByID")
	defer func() { s.endSpan(span, err) }()

	var acc entity.Account
	err = s.conn.QueryRow(ctx, selectAccount+" WHERE id = $1", id).Scan(
		&acc.ID, &acc.Email, &acc.FullName, &acc.PasswordHash, &acc.Phone, &acc.Roles,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &acc, nil
}

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	var acc entity.Account
	err = s.conn.QueryRow(ctx, selectAccount+" WHERE email = $1", strings.ToLower(email)).Scan(
		&acc.ID, &acc.Email, &acc.FullName, &acc.PasswordHash, &acc.Phone, &acc.Roles,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &acc, nil
}

// CreateAccount inserts an account together with its empty security
// record. It backs the bootstrap admin and integration tests; account
// management itself lives outside this service.
func (s *DB) CreateAccount(ctx context.Context, acc entity.Account, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	roles := acc.Roles
	if roles == nil {
		roles = []string{}
	}

	if _, err = tx.Exec(ctx, `
INSERT INTO campus_accounts (id, email, full_name, password_hash, phone, roles)
VALUES ($1, $2, $3, $4, $5, $6)`,
		acc.ID, strings.ToLower(acc.Email), acc.FullName, acc.PasswordHash, acc.Phone, roles,
	); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		"INSERT INTO account_security (account_id, version, updated_at) VALUES ($1, 1, $2)",
		acc.ID, now,
	); err != nil {
		return s.mapError(err)
	}

	return tx.Commit(ctx)
}
