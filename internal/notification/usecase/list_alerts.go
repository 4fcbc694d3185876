package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
)

type ListSecurityAlertsInput struct {
	Limit  int32 `validate:"omitempty,gte=1,lte=100"`
	Offset int32 `validate:"omitempty,gte=0"`
}

// ListSecurityAlerts returns the alerts sent to the authenticated account.
func (s *Usecase) ListSecurityAlerts(ctx context.Context, in ListSecurityAlertsInput) ([]entity.SecurityAlert, error) {
	ctx, span := s.startSpan(ctx, "ListSecurityAlerts")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if in.Limit == 0 {
		in.Limit = 20
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	items, err := s.repoDB.ListAlerts(ctx, clm.AccountID, in.Limit, in.Offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list security alerts", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return items, nil
}
