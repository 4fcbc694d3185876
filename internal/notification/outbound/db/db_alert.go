package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
)

// CreateAlert returns goerror.ErrConflict when the event was already recorded.
func (s *DB) CreateAlert(ctx context.Context, a entity.SecurityAlert) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAlert")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
INSERT INTO security_alerts (id, event_id, account_id, trigger_key, recipient, subject, status, occurred_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.EventID, a.AccountID, a.TriggerKey.String(), a.Recipient, a.Subject, a.Status, a.OccurredAt, a.CreatedAt,
	)

	return s.mapError(err)
}

func (s *DB) UpdateAlertStatus(ctx context.Context, u entity.UpdateAlertStatus) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateAlertStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		"UPDATE security_alerts SET status = $2, error = $3, delivered_at = $4 WHERE id = $1",
		u.ID, u.Status, u.Error, u.DeliveredAt,
	)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

// ListAlerts returns the newest alerts of an account first.
func (s *DB) ListAlerts(ctx context.Context, accountID int64, limit, offset int32) (_ []entity.SecurityAlert, err error) {
	ctx, span := s.startSpan(ctx, "ListAlerts")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
SELECT id, event_id, account_id, trigger_key, recipient, subject, status, error, occurred_at, created_at, delivered_at
FROM security_alerts
WHERE account_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, s.mapError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.SecurityAlert, error) {
		var (
			a  entity.SecurityAlert
			tk string
		)
		err := row.Scan(&a.ID, &a.EventID, &a.AccountID, &tk, &a.Recipient, &a.Subject,
			&a.Status, &a.Error, &a.OccurredAt, &a.CreatedAt, &a.DeliveredAt)
		a.TriggerKey = entity.TriggerKey(tk)
		return a, err
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return items, nil
}
