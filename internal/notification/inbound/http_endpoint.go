package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/notification/usecase"
	"github.com/shandysiswandi/campusguard/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

// ListSecurityAlerts lists the security alerts sent to the caller.
// @Summary List security alerts
// @Description Returns the newest alerts first.
// @Tags Notification
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (1-100, default 20)"
// @Param offset query int false "Items to skip"
// @Success 200 {object} router.successResponse{data=SecurityAlertsResponse}
// @Failure 400 {object} router.errorResponse "Invalid query"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/notification/security-alerts [get]
func (h *HTTPEndpoint) ListSecurityAlerts(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}
	offset, err := r.GetQueryInt32("offset")
	if err != nil {
		return nil, err
	}

	items, err := h.uc.ListSecurityAlerts(r.Context(), usecase.ListSecurityAlertsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}

	return SecurityAlertsResponse{
		Alerts: lo.Map(items, func(a entity.SecurityAlert, _ int) SecurityAlertResponse {
			return SecurityAlertResponse{
				ID:          a.ID,
				Type:        a.TriggerKey.String(),
				Subject:     a.Subject,
				Status:      a.Status.String(),
				OccurredAt:  a.OccurredAt,
				DeliveredAt: a.DeliveredAt,
			}
		}),
	}, nil
}
