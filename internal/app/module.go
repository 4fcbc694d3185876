package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/campusguard/internal/notification"
	"github.com/shandysiswandi/campusguard/internal/twofactor"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.twofactor.enabled") {
		if err := twofactor.New(twofactor.Dependency{
			Ctx:             a.ctx,
			DBConn:          a.dbConn,
			CacheConn:       a.cacheConn,
			Goroutine:       a.goroutine,
			Authorizer:      a.authz,
			Router:          a.router,
			Messaging:       a.messaging,
			Mail:            a.mail,
			Cooldown:        a.cooldown,
			Config:          a.config,
			Instrument:      a.ins,
			UID:             a.uid,
			UUID:            a.uuid,
			Token:           a.token,
			HMAC:            a.hmac,
			Bcrypt:          a.bcrypt,
			Argon2ID:        a.argon2id,
			MFAEncryptor:    a.mfaEncryptor,
			MFARecoveryCode: a.mfaRecoveryCode,
			Clock:           a.clock,
			Totp:            a.totp,
			Validator:       a.validator,
			JWT:             a.jwt,
		}); err != nil {
			slog.Error("failed to init module twofactor", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Router:     a.router,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
