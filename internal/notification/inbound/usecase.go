package inbound

import (
	"context"

	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/notification/usecase"
)

type ucConsumer interface {
	ConsumeSecurityEvent(ctx context.Context, in usecase.ConsumeSecurityEventInput) error
}

type uc interface {
	ucConsumer

	ListSecurityAlerts(ctx context.Context, in usecase.ListSecurityAlertsInput) ([]entity.SecurityAlert, error)
}
