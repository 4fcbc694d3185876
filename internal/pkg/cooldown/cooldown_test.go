package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
)

func TestMemory_Acquire(t *testing.T) {
	clk := clock.NewFixed(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC))
	cd := NewMemory(clk)
	ctx := context.Background()

	ok, err := cd.Acquire(ctx, "sms:1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = cd.Acquire(ctx, "sms:1", time.Minute)
	assert.False(t, ok)

	ok, _ = cd.Acquire(ctx, "sms:2", time.Minute)
	assert.True(t, ok)

	clk.Advance(time.Minute)
	ok, _ = cd.Acquire(ctx, "sms:1", time.Minute)
	assert.True(t, ok)

	require.NoError(t, cd.Release(ctx, "sms:1"))
	ok, _ = cd.Acquire(ctx, "sms:1", time.Minute)
	assert.True(t, ok)
}
