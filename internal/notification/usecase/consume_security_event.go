package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/mail"
)

const alertTimeLayout = "02 Jan 2006 15:04 MST"

type ConsumeSecurityEventInput struct {
	EventID     string `validate:"required,max=64"`
	Type        string `validate:"required"`
	AccountID   int64  `validate:"required,gt=0"`
	Email       string `validate:"omitempty,email"`
	FullName    string
	OccurredAt  time.Time
	LockedUntil *time.Time
}

// ConsumeSecurityEvent emails the account owner about a change to their
// account protection. Each event id is handled at most once; a redelivered
// event is acknowledged without sending again.
func (s *Usecase) ConsumeSecurityEvent(ctx context.Context, in ConsumeSecurityEventInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeSecurityEvent")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tk, ok := entity.TriggerKeyFromEventType(in.Type)
	if !ok {
		slog.DebugContext(ctx, "security event has no alert", "event_type", in.Type)
		return nil
	}

	now := s.clock.Now()
	if in.OccurredAt.IsZero() {
		in.OccurredAt = now
	}

	alert := entity.SecurityAlert{
		ID:         s.uid.Generate(),
		EventID:    in.EventID,
		AccountID:  in.AccountID,
		TriggerKey: tk,
		Recipient:  in.Email,
		Status:     entity.DeliveryStatusQueued,
		OccurredAt: in.OccurredAt,
		CreatedAt:  now,
	}
	if in.Email == "" {
		alert.Status = entity.DeliveryStatusSkipped
		alert.Error = "account has no email address"
	}

	tpl := s.template(tk)
	data := s.baseEmailTemplateData()
	data["full_name"] = in.FullName
	data["email"] = in.Email
	data["occurred_at"] = in.OccurredAt.UTC().Format(alertTimeLayout)
	if in.LockedUntil != nil {
		data["locked_until"] = in.LockedUntil.UTC().Format(alertTimeLayout)
	}

	subject, err := s.renderTemplate("subject", tpl.Subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render alert subject", "trigger_key", tk.String(), "error", err)
		return goerror.NewServer(err)
	}
	body, err := s.renderTemplate("body", tpl.Body, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render alert body", "trigger_key", tk.String(), "error", err)
		return goerror.NewServer(err)
	}
	alert.Subject = subject

	err = s.repoDB.CreateAlert(ctx, alert)
	if errors.Is(err, goerror.ErrConflict) {
		slog.InfoContext(ctx, "security event already handled", "event_id", in.EventID)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create security alert", "event_id", in.EventID, "error", err)
		return goerror.NewServer(err)
	}

	if alert.Status == entity.DeliveryStatusSkipped {
		slog.WarnContext(ctx, "security alert skipped", "account_id", in.AccountID, "trigger_key", tk.String())
		return nil
	}

	up := entity.UpdateAlertStatus{ID: alert.ID, Status: entity.DeliveryStatusSent}
	mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		HTMLBody: body,
	})
	if mailErr != nil {
		up.Status = entity.DeliveryStatusFailed
		up.Error = mailErr.Error()
		slog.ErrorContext(ctx, "failed to send security alert email", "alert_id", alert.ID, "account_id", in.AccountID,
			"trigger_key", tk.String(), "error", mailErr)
	} else {
		delivered := s.clock.Now()
		up.DeliveredAt = &delivered
	}

	if err := s.repoDB.UpdateAlertStatus(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update security alert status", "alert_id", alert.ID,
			"status", up.Status.String(), "error", err)
	}

	return nil
}
