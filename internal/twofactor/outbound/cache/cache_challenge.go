package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

type loginChallenge struct {
	AccountID int64     `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateLoginChallenge stores ch under tokenHash until it expires. An
// already expired challenge is not stored at all.
func (c *Cache) CreateLoginChallenge(ctx context.Context, tokenHash string, ch entity.LoginChallenge) (err error) {
	ctx, span := c.startSpan(ctx, "CreateLoginChallenge")
	defer func() { c.endSpan(span, err) }()

	ttl := ch.ExpiresAt.Sub(c.clock.Now())
	if ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(loginChallenge{AccountID: ch.AccountID, ExpiresAt: ch.ExpiresAt})
	if err != nil {
		return err
	}

	ok, err := c.client.SetNX(ctx, challengePrefix+tokenHash, payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return goerror.ErrConflict
	}
	return nil
}

func (c *Cache) GetLoginChallenge(ctx context.Context, tokenHash string) (_ *entity.LoginChallenge, err error) {
	ctx, span := c.startSpan(ctx, "GetLoginChallenge")
	defer func() { c.endSpan(span, err) }()

	raw, err := c.client.Get(ctx, challengePrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var ch loginChallenge
	if err = json.Unmarshal(raw, &ch); err != nil {
		return nil, err
	}

	return &entity.LoginChallenge{AccountID: ch.AccountID, ExpiresAt: ch.ExpiresAt}, nil
}

// DeleteLoginChallenge reports whether this call removed the key.
func (c *Cache) DeleteLoginChallenge(ctx context.Context, tokenHash string) (_ bool, err error) {
	ctx, span := c.startSpan(ctx, "DeleteLoginChallenge")
	defer func() { c.endSpan(span, err) }()

	n, err := c.client.Del(ctx, challengePrefix+tokenHash).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
