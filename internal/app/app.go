package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/campusguard/internal/pkg/authz"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/cooldown"
	"github.com/shandysiswandi/campusguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/campusguard/internal/pkg/hash"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/mail"
	"github.com/shandysiswandi/campusguard/internal/pkg/messaging"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/pkg/otp"
	"github.com/shandysiswandi/campusguard/internal/pkg/router"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine       *goroutine.Manager
	validator       validator.Validator
	clock           clock.Clocker
	hmac            hash.Hash
	argon2id        hash.Hash
	bcrypt          hash.Hash
	uid             uid.NumberID
	uuid            uid.StringID
	token           uid.StringID
	totp            otp.OTP
	jwt             jwt.JWT
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator

	// resources
	dbConn       *pgxpool.Pool
	cacheConn    *redis.Client
	cooldown     cooldown.Cooldown
	mail         mail.Mail
	messaging    messaging.Messaging
	authz        *authz.Casbin
	authzWatcher *authz.Reloader

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initAuthz()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
