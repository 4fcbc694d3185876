// Package cooldown enforces a minimum interval between repeated actions, such
// as re-sending an SMS code to the same account.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
)

// Cooldown starts a cooldown window for key.
type Cooldown interface {
	// Acquire returns true when no window was active and a new one of length
	// ttl has started. It returns false while a previous window is running.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release ends the window early.
	Release(ctx context.Context, key string) error
}

// Redis stores windows as keys with a TTL.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis backed Cooldown.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "cooldown:"}
}

func (r *Redis) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+key, 1, ttl).Result()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Memory keeps windows in process; used by tests and the single-node setup.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clocker
	windows map[string]time.Time
}

// NewMemory returns an in-process Cooldown.
func NewMemory(c clock.Clocker) *Memory {
	return &Memory{clock: c, windows: make(map[string]time.Time)}
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if until, ok := m.windows[key]; ok && now.Before(until) {
		return false, nil
	}
	m.windows[key] = now.Add(ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}
