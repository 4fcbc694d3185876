package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shandysiswandi/campusguard/internal/pkg/authz"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/cooldown"
	"github.com/shandysiswandi/campusguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/campusguard/internal/pkg/hash"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/pkg/otp"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/pkg/validator"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// repoStore is the Credential Store. SaveSecurity must only succeed when the
// stored version still equals rec.Version and must bump rec.Version on
// success; a lost race returns goerror.ErrConflict.
type repoStore interface {
	GetSecurity(ctx context.Context, accountID int64) (*entity.AccountSecurity, error)
	SaveSecurity(ctx context.Context, rec *entity.AccountSecurity) error
}

type repoAccount interface {
	GetAccountByID(ctx context.Context, id int64) (*entity.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
}

type repoChallenge interface {
	CreateLoginChallenge(ctx context.Context, tokenHash string, ch entity.LoginChallenge) error
	GetLoginChallenge(ctx context.Context, tokenHash string) (*entity.LoginChallenge, error)
	// DeleteLoginChallenge reports whether this call removed the challenge,
	// so only one of two racing requests can consume it.
	DeleteLoginChallenge(ctx context.Context, tokenHash string) (bool, error)
}

type repoMessaging interface {
	PublishSecurityEvent(ctx context.Context, ev entity.SecurityEvent) error
}

// notifier is the Notification Gateway.
type notifier interface {
	Send(ctx context.Context, destination, message string) error
}

type codeGenerator interface {
	Generate() (string, error)
}

type Usecase struct {
	store           repoStore
	accounts        repoAccount
	challenges      repoChallenge
	repoMessaging   repoMessaging
	gateway         notifier
	cooldown        cooldown.Cooldown
	authz           authz.Authorizer
	validator       validator.Validator
	cfg             config.Config
	bcrypt          hash.Hash
	argon2id        hash.Hash
	hmac            hash.Hash
	mfaEncryptor    mfa.Encryptor
	mfaRecoveryCode mfa.RecoveryCodeGenerator
	totp            otp.OTP
	smsCode         codeGenerator
	token           uid.StringID
	uuid            uid.StringID
	clock           clock.Clocker
	jwt             jwt.JWT
	ins             instrument.Instrumentation
	goroutine       *goroutine.Manager

	verifyCounter  metric.Int64Counter
	lockoutCounter metric.Int64Counter

	dummyOnce sync.Once
	dummyHash string
}

type Dependency struct {
	Store           repoStore
	Accounts        repoAccount
	Challenges      repoChallenge
	RepoMessaging   repoMessaging
	Gateway         notifier
	Cooldown        cooldown.Cooldown
	Authorizer      authz.Authorizer
	Validator       validator.Validator
	Config          config.Config
	Bcrypt          hash.Hash
	Argon2ID        hash.Hash
	HMAC            hash.Hash
	MFAEncryptor    mfa.Encryptor
	MFARecoveryCode mfa.RecoveryCodeGenerator
	Totp            otp.OTP
	SMSCode         codeGenerator
	Token           uid.StringID
	UUID            uid.StringID
	Clock           clock.Clocker
	JWT             jwt.JWT
	Instrument      instrument.Instrumentation
	Goroutine       *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		store:           dep.Store,
		accounts:        dep.Accounts,
		challenges:      dep.Challenges,
		repoMessaging:   dep.RepoMessaging,
		gateway:         dep.Gateway,
		cooldown:        dep.Cooldown,
		authz:           dep.Authorizer,
		validator:       dep.Validator,
		cfg:             dep.Config,
		bcrypt:          dep.Bcrypt,
		argon2id:        dep.Argon2ID,
		hmac:            dep.HMAC,
		mfaEncryptor:    dep.MFAEncryptor,
		mfaRecoveryCode: dep.MFARecoveryCode,
		totp:            dep.Totp,
		smsCode:         dep.SMSCode,
		token:           dep.Token,
		uuid:            dep.UUID,
		clock:           dep.Clock,
		jwt:             dep.JWT,
		ins:             dep.Instrument,
		goroutine:       dep.Goroutine,
	}

	meter := s.ins.Meter("twofactor.usecase")

	var err error
	s.verifyCounter, err = meter.Int64Counter("twofactor.verify.total",
		metric.WithDescription("Second factor verifications by factor and outcome"))
	if err != nil {
		slog.Warn("failed to create verify counter", "error", err)
	}

	s.lockoutCounter, err = meter.Int64Counter("twofactor.lockout.total",
		metric.WithDescription("Accounts locked after repeated failures"))
	if err != nil {
		slog.Warn("failed to create lockout counter", "error", err)
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

func (s *Usecase) countVerify(ctx context.Context, factor entity.Factor, outcome string) {
	if s.verifyCounter == nil {
		return
	}
	s.verifyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("factor", factor.String()),
		attribute.String("outcome", outcome),
	))
}

func (s *Usecase) countLockout(ctx context.Context) {
	if s.lockoutCounter == nil {
		return
	}
	s.lockoutCounter.Add(ctx, 1)
}
