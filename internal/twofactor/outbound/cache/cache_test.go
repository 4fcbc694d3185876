package cache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testClient *redis.Client

func TestMain(m *testing.M) {
	if os.Getenv("CAMPUSGUARD_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err == nil {
		var opt *redis.Options
		opt, err = redis.ParseURL(uri)
		if err == nil {
			testClient = redis.NewClient(opt)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to redis: %v\n", err)
		_ = testcontainers.TerminateContainer(ctr)
		os.Exit(1)
	}

	code := m.Run()

	_ = testClient.Close()
	if err := testcontainers.TerminateContainer(ctr); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func testCache(t *testing.T, clk clock.Clocker) *Cache {
	t.Helper()

	if testClient == nil {
		t.Skip("set CAMPUSGUARD_INTEGRATION=1 to run against a redis container")
	}
	require.NoError(t, testClient.FlushDB(context.Background()).Err())
	return New(testClient, clk, instrument.NewNoop())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	until := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	rec := &entity.AccountSecurity{
		AccountID:      7,
		TOTPEnabled:    true,
		TOTPSecret:     []byte("sealed"),
		BackupCodes:    []entity.BackupCode{{Hash: "a"}, {Hash: "b", Used: true}},
		SMSChallenge:   &entity.SMSChallenge{CodeHash: "d", Destination: "+1555", ExpiresAt: until, AttemptsRemaining: 2},
		FailedAttempts: 1,
		LockedUntil:    &until,
		Version:        4,
		UpdatedAt:      until,
	}

	assert.Equal(t, rec, toSnapshot(rec).record())
}

func TestCache_SecurityConditionalSave(t *testing.T) {
	c := testCache(t, clock.New())
	ctx := context.Background()

	_, err := c.GetSecurity(ctx, 7)
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	first := entity.NewAccountSecurity(7)
	require.NoError(t, c.SaveSecurity(ctx, first))
	assert.EqualValues(t, 1, first.Version)
	assert.ErrorIs(t, c.SaveSecurity(ctx, entity.NewAccountSecurity(7)), goerror.ErrConflict)

	a, err := c.GetSecurity(ctx, 7)
	require.NoError(t, err)
	b, err := c.GetSecurity(ctx, 7)
	require.NoError(t, err)

	a.FailedAttempts = 2
	require.NoError(t, c.SaveSecurity(ctx, a))

	b.FailedAttempts = 1
	assert.ErrorIs(t, c.SaveSecurity(ctx, b), goerror.ErrConflict)
	assert.EqualValues(t, 1, b.Version)

	got, err := c.GetSecurity(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Version)
	assert.Equal(t, 2, got.FailedAttempts)
}

func TestCache_ConcurrentSavesOneWins(t *testing.T) {
	c := testCache(t, clock.New())
	ctx := context.Background()
	require.NoError(t, c.SaveSecurity(ctx, entity.NewAccountSecurity(9)))

	const writers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < writers; i++ {
		rec, err := c.GetSecurity(ctx, 9)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.FailedAttempts++
			if err := c.SaveSecurity(ctx, rec); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestCache_LoginChallenges(t *testing.T) {
	clk := clock.NewFixed(time.Now())
	c := testCache(t, clk)
	ctx := context.Background()

	ch := entity.LoginChallenge{AccountID: 3, ExpiresAt: clk.Now().Add(time.Minute)}
	require.NoError(t, c.CreateLoginChallenge(ctx, "h", ch))
	assert.ErrorIs(t, c.CreateLoginChallenge(ctx, "h", ch), goerror.ErrConflict)

	got, err := c.GetLoginChallenge(ctx, "h")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.AccountID)
	assert.True(t, ch.ExpiresAt.Equal(got.ExpiresAt))

	ttl, err := testClient.TTL(ctx, challengePrefix+"h").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	ok, err := c.DeleteLoginChallenge(ctx, "h")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = c.DeleteLoginChallenge(ctx, "h")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.CreateLoginChallenge(ctx, "old", entity.LoginChallenge{AccountID: 3, ExpiresAt: clk.Now()}))
	_, err = c.GetLoginChallenge(ctx, "old")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
