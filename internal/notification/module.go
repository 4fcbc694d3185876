package notification

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/campusguard/internal/notification/inbound"
	"github.com/shandysiswandi/campusguard/internal/notification/outbound/db"
	"github.com/shandysiswandi/campusguard/internal/notification/outbound/email"
	"github.com/shandysiswandi/campusguard/internal/notification/usecase"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/mail"
	"github.com/shandysiswandi/campusguard/internal/pkg/messaging"
	"github.com/shandysiswandi/campusguard/internal/pkg/router"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/pkg/validator"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              `validate:"required"`
	Messaging  messaging.Consumer         `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	repoMail := email.New(dep.Mail, dep.Instrument)

	if dep.Config.GetBool("database.auto_migrate") {
		if err := dbNotif.Migrate(dep.Ctx); err != nil {
			return fmt.Errorf("migrate notification schema: %w", err)
		}
	}

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:     dbNotif,
		RepoMail:   repoMail,
		Config:     dep.Config,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

	return nil
}
