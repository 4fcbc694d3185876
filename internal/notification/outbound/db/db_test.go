package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	if os.Getenv("CAMPUSGUARD_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("campusguard"),
		postgres.WithUsername("campusguard"),
		postgres.WithPassword("campusguard"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		testPool, err = pgxpool.New(ctx, dsn)
	}
	if err == nil {
		err = NewDB(testPool, instrument.NewNoop()).Migrate(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare database: %v\n", err)
		_ = testcontainers.TerminateContainer(ctr)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	if err := testcontainers.TerminateContainer(ctr); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func testDB(t *testing.T) *DB {
	t.Helper()

	if testPool == nil {
		t.Skip("set CAMPUSGUARD_INTEGRATION=1 to run against a postgres container")
	}
	return NewDB(testPool, instrument.NewNoop())
}

func TestDB_Alerts(t *testing.T) {
	s := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for i, tk := range []entity.TriggerKey{entity.TriggerKeyTwoFactorEnabled, entity.TriggerKeyAccountLocked} {
		require.NoError(t, s.CreateAlert(ctx, entity.SecurityAlert{
			ID:         int64(100 + i),
			EventID:    fmt.Sprintf("evt-%d", i),
			AccountID:  77,
			TriggerKey: tk,
			Recipient:  "ann@campus.test",
			Subject:    "subject",
			Status:     entity.DeliveryStatusQueued,
			OccurredAt: base,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	err := s.CreateAlert(ctx, entity.SecurityAlert{
		ID: 999, EventID: "evt-0", AccountID: 77, TriggerKey: entity.TriggerKeyTwoFactorEnabled,
		Status: entity.DeliveryStatusQueued, OccurredAt: base, CreatedAt: base,
	})
	assert.ErrorIs(t, err, goerror.ErrConflict)

	delivered := base.Add(time.Second)
	require.NoError(t, s.UpdateAlertStatus(ctx, entity.UpdateAlertStatus{
		ID: 101, Status: entity.DeliveryStatusSent, DeliveredAt: &delivered,
	}))
	assert.ErrorIs(t, s.UpdateAlertStatus(ctx, entity.UpdateAlertStatus{ID: 12345}), goerror.ErrNotFound)

	items, err := s.ListAlerts(ctx, 77, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entity.TriggerKeyAccountLocked, items[0].TriggerKey)
	assert.Equal(t, entity.DeliveryStatusSent, items[0].Status)
	require.NotNil(t, items[0].DeliveredAt)
	assert.True(t, delivered.Equal(*items[0].DeliveredAt))
	assert.Equal(t, entity.DeliveryStatusQueued, items[1].Status)

	items, err = s.ListAlerts(ctx, 77, 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 100, items[0].ID)

	items, err = s.ListAlerts(ctx, 78, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}
