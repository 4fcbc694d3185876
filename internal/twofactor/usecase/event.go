package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
)

// publish emits a security event in the background. The request context is
// detached so the event survives the response being written.
func (s *Usecase) publish(ctx context.Context, acc *entity.Account, typ entity.EventType, actorID int64, lockedUntil *time.Time) {
	ev := entity.SecurityEvent{
		ID:          s.uuid.Generate(),
		Type:        typ,
		AccountID:   acc.ID,
		Email:       acc.Email,
		FullName:    acc.FullName,
		ActorID:     actorID,
		OccurredAt:  s.clock.Now(),
		LockedUntil: lockedUntil,
	}

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSecurityEvent(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish security event", "account_id", ev.AccountID,
				"event_type", string(ev.Type), "error", err)
		}
		return nil
	})
}
