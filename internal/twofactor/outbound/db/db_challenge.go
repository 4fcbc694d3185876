package db

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

func (s *DB) CreateLoginChallenge(ctx context.Context, tokenHash string, ch entity.LoginChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateLoginChallenge")
	defer func() { s.endSpan(span, err) }()

	if _, pErr := s.conn.Exec(ctx, "DELETE FROM login_challenges WHERE expires_at <= NOW()"); pErr != nil {
		slog.WarnContext(ctx, "failed to purge expired login challenges", "error", pErr)
	}

	_, err = s.conn.Exec(ctx,
		"INSERT INTO login_challenges (token_hash, account_id, expires_at) VALUES ($1, $2, $3)",
		tokenHash, ch.AccountID, ch.ExpiresAt,
	)
	return s.mapError(err)
}

func (s *DB) GetLoginChallenge(ctx context.Context, tokenHash string) (_ *entity.LoginChallenge, err error) {
	ctx, span := s.startSpan(ctx, "GetLoginChallenge")
	defer func() { s.endSpan(span, err) }()

	var ch entity.LoginChallenge
	err = s.conn.QueryRow(ctx,
		"SELECT account_id, expires_at FROM login_challenges WHERE token_hash = $1",
		tokenHash,
	).Scan(&ch.AccountID, &ch.ExpiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &ch, nil
}

// DeleteLoginChallenge reports whether this call removed the row.
func (s *DB) DeleteLoginChallenge(ctx context.Context, tokenHash string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteLoginChallenge")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, "DELETE FROM login_challenges WHERE token_hash = $1", tokenHash)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() > 0, nil
}
