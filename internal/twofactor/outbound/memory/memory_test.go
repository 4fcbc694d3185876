package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ConditionalSave(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetSecurity(ctx, 7)
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	first := entity.NewAccountSecurity(7)
	require.NoError(t, s.SaveSecurity(ctx, first))
	assert.EqualValues(t, 1, first.Version)

	assert.ErrorIs(t, s.SaveSecurity(ctx, entity.NewAccountSecurity(7)), goerror.ErrConflict)

	a, err := s.GetSecurity(ctx, 7)
	require.NoError(t, err)
	b, err := s.GetSecurity(ctx, 7)
	require.NoError(t, err)

	a.FailedAttempts = 1
	require.NoError(t, s.SaveSecurity(ctx, a))

	b.FailedAttempts = 1
	assert.ErrorIs(t, s.SaveSecurity(ctx, b), goerror.ErrConflict)

	got, err := s.GetSecurity(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Version)

	got.FailedAttempts = 99
	again, err := s.GetSecurity(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, again.FailedAttempts)
}

func TestStore_RefusesInvalidRecord(t *testing.T) {
	s := NewStore()

	rec := entity.NewAccountSecurity(7)
	rec.TOTPEnabled = true
	assert.ErrorIs(t, s.SaveSecurity(context.Background(), rec), entity.ErrInvariant)
}

func TestAccounts(t *testing.T) {
	a := NewAccounts(entity.Account{ID: 1, Email: "Ann@Campus.test"})

	acc, err := a.GetAccountByEmail(context.Background(), "ann@campus.TEST")
	require.NoError(t, err)
	assert.EqualValues(t, 1, acc.ID)

	_, err = a.GetAccountByID(context.Background(), 2)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestChallenges(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	c := NewChallenges(clk)

	require.NoError(t, c.CreateLoginChallenge(ctx, "h1", entity.LoginChallenge{AccountID: 1, ExpiresAt: clk.Now().Add(time.Minute)}))
	assert.ErrorIs(t, c.CreateLoginChallenge(ctx, "h1", entity.LoginChallenge{AccountID: 1}), goerror.ErrConflict)

	ch, err := c.GetLoginChallenge(ctx, "h1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, ch.AccountID)

	ok, err := c.DeleteLoginChallenge(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.DeleteLoginChallenge(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.CreateLoginChallenge(ctx, "h2", entity.LoginChallenge{AccountID: 2, ExpiresAt: clk.Now().Add(time.Minute)}))
	clk.Advance(time.Minute)
	_, err = c.GetLoginChallenge(ctx, "h2")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
