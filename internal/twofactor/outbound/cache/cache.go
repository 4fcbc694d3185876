// Package cache keeps account security records and login challenges in
// Redis. Records are JSON snapshots guarded by WATCH so concurrent writers
// see the same conditional save contract as the Postgres store.
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	securityPrefix  = "twofactor:security:"
	challengePrefix = "twofactor:login:"
)

type Cache struct {
	client redis.UniversalClient
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func New(client redis.UniversalClient, c clock.Clocker, ins instrument.Instrumentation) *Cache {
	return &Cache{client: client, clock: c, ins: ins}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("twofactor.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
