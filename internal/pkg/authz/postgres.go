package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
)

// DefaultReloadChannel is the Postgres NOTIFY channel that triggers a reload.
const DefaultReloadChannel = "campusguard_authz_reload"

// PGSource reads rules from a table with columns (ptype, v0, v1, v2).
type PGSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGSource returns a Source over table.
func NewPGSource(pool *pgxpool.Pool, table string) *PGSource {
	return &PGSource{pool: pool, table: table}
}

// EnsureTable creates the rule table and a trigger that notifies channel on
// every change, so a running Reloader picks edits up without a restart.
func (s *PGSource) EnsureTable(ctx context.Context, channel string) error {
	if channel == "" {
		channel = DefaultReloadChannel
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
    id    BIGSERIAL PRIMARY KEY,
    ptype TEXT      NOT NULL,
    v0    TEXT      NOT NULL,
    v1    TEXT      NOT NULL,
    v2    TEXT
);

CREATE OR REPLACE FUNCTION %[1]s_notify() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('%[2]s', TG_OP);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE TRIGGER %[1]s_changed
    AFTER INSERT OR UPDATE OR DELETE OR TRUNCATE ON %[1]s
    FOR EACH STATEMENT EXECUTE FUNCTION %[1]s_notify();
`, s.table, channel)

	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// Rules implements Source.
func (s *PGSource) Rules(ctx context.Context) ([][]string, error) {
	query := fmt.Sprintf("SELECT ptype, v0, v1, COALESCE(v2, '') FROM %s ORDER BY id", s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var ptype, v0, v1, v2 string
		if err := rows.Scan(&ptype, &v0, &v1, &v2); err != nil {
			return nil, err
		}
		rule := []string{ptype, v0, v1}
		if v2 != "" {
			rule = append(rule, v2)
		}
		out = append(out, rule)
	}

	return out, rows.Err()
}

// Reloader listens on a Postgres channel and reloads the enforcer on every
// notification. The listener reconnects with a capped Fibonacci backoff.
type Reloader struct {
	pool    *pgxpool.Pool
	channel string
	reload  func() error
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReloader starts listening in the background until Close is called.
func NewReloader(ctx context.Context, pool *pgxpool.Pool, channel string, c *Casbin) *Reloader {
	if channel == "" {
		channel = DefaultReloadChannel
	}

	lctx, cancel := context.WithCancel(ctx)
	r := &Reloader{
		pool:    pool,
		channel: channel,
		reload:  c.Reload,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(r.done)

		b := retry.WithCappedDuration(5*time.Second, retry.NewFibonacci(200*time.Millisecond))
		if err := retry.Do(lctx, b, func(ctx context.Context) error {
			if err := r.listen(ctx); errors.Is(err, context.Canceled) {
				return nil
			} else if err != nil {
				slog.Error("authz reloader failed to listen", "channel", r.channel, "error", err)
				return retry.RetryableError(err)
			}
			return nil
		}); err != nil {
			slog.Error("authz reloader stopped", "error", err)
		}
	}()

	return r
}

// Close stops the listener and waits for it to exit.
func (r *Reloader) Close() {
	r.cancel()
	<-r.done
}

func (r *Reloader) listen(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+r.channel); err != nil {
		return err
	}

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			return err
		}

		if err := r.reload(); err != nil {
			slog.Error("authz failed to reload policy", "error", err)
			continue
		}
		slog.Info("authz policy reloaded", "channel", r.channel)
	}
}
