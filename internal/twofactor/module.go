package twofactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/campusguard/internal/pkg/authz"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/cooldown"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
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
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/shandysiswandi/campusguard/internal/twofactor/inbound"
	"github.com/shandysiswandi/campusguard/internal/twofactor/outbound/cache"
	"github.com/shandysiswandi/campusguard/internal/twofactor/outbound/db"
	"github.com/shandysiswandi/campusguard/internal/twofactor/outbound/gateway"
	"github.com/shandysiswandi/campusguard/internal/twofactor/outbound/memory"
	"github.com/shandysiswandi/campusguard/internal/twofactor/outbound/mq"
	"github.com/shandysiswandi/campusguard/internal/twofactor/usecase"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"
)

// ErrUnknownStoreDriver indicates an unsupported credential or challenge store.
var ErrUnknownStoreDriver = errors.New("twofactor: unknown store driver")

type Dependency struct {
	Ctx             context.Context            `validate:"required"`
	DBConn          *pgxpool.Pool              `validate:"required"`
	CacheConn       redis.UniversalClient      `validate:"required"`
	Goroutine       *goroutine.Manager         `validate:"required"`
	Authorizer      authz.Authorizer           `validate:"required"`
	Router          *router.Router             `validate:"required"`
	Messaging       messaging.Publisher        `validate:"required"`
	Mail            mail.Mail                  `validate:"required"`
	Cooldown        cooldown.Cooldown          `validate:"required"`
	Config          config.Config              `validate:"required"`
	Instrument      instrument.Instrumentation `validate:"required"`
	UID             uid.NumberID               `validate:"required"`
	UUID            uid.StringID               `validate:"required"`
	Token           uid.StringID               `validate:"required"`
	HMAC            hash.Hash                  `validate:"required"`
	Bcrypt          hash.Hash                  `validate:"required"`
	Argon2ID        hash.Hash                  `validate:"required"`
	MFAEncryptor    mfa.Encryptor              `validate:"required"`
	MFARecoveryCode mfa.RecoveryCodeGenerator  `validate:"required"`
	Clock           clock.Clocker              `validate:"required"`
	Totp            otp.OTP                    `validate:"required"`
	Validator       validator.Validator        `validate:"required"`
	JWT             jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbTwoFactor := db.NewDB(dep.DBConn, dep.Instrument)
	cacheTwoFactor := cache.New(dep.CacheConn, dep.Clock, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	if dep.Config.GetBool("database.auto_migrate") {
		if err := dbTwoFactor.Migrate(dep.Ctx); err != nil {
			return fmt.Errorf("migrate twofactor schema: %w", err)
		}
	}

	if err := bootstrapAdmin(dep, dbTwoFactor); err != nil {
		return err
	}

	var store interface {
		GetSecurity(ctx context.Context, accountID int64) (*entity.AccountSecurity, error)
		SaveSecurity(ctx context.Context, rec *entity.AccountSecurity) error
	}
	switch driver := storeDriver(dep.Config, "modules.twofactor.store.driver"); driver {
	case StoreDriverPostgres:
		store = dbTwoFactor
	case StoreDriverRedis:
		store = cacheTwoFactor
	case StoreDriverMemory:
		slog.Warn("twofactor credential store is in memory, records are lost on restart")
		store = memory.NewStore()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStoreDriver, driver)
	}

	var challenges interface {
		CreateLoginChallenge(ctx context.Context, tokenHash string, ch entity.LoginChallenge) error
		GetLoginChallenge(ctx context.Context, tokenHash string) (*entity.LoginChallenge, error)
		DeleteLoginChallenge(ctx context.Context, tokenHash string) (bool, error)
	}
	switch driver := storeDriver(dep.Config, "modules.twofactor.login.challenge_store"); driver {
	case StoreDriverPostgres:
		challenges = dbTwoFactor
	case StoreDriverRedis:
		challenges = cacheTwoFactor
	case StoreDriverMemory:
		challenges = memory.NewChallenges(dep.Clock)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStoreDriver, driver)
	}

	sender, err := gateway.New(gateway.Config{
		Driver:                dep.Config.GetString("modules.twofactor.gateway.driver"),
		EmailDomain:           dep.Config.GetString("modules.twofactor.gateway.email.domain"),
		EmailSubject:          dep.Config.GetString("modules.twofactor.gateway.email.subject"),
		SMSAPIEndpoint:        dep.Config.GetString("modules.twofactor.gateway.smsapi.endpoint"),
		SMSAPIToken:           dep.Config.GetString("modules.twofactor.gateway.smsapi.token"),
		SMSAPISender:          dep.Config.GetString("modules.twofactor.gateway.smsapi.sender"),
		TwilioAccountSID:      dep.Config.GetString("modules.twofactor.gateway.twilio.account_sid"),
		TwilioAuthToken:       dep.Config.GetString("modules.twofactor.gateway.twilio.auth_token"),
		TwilioFrom:            dep.Config.GetString("modules.twofactor.gateway.twilio.from"),
		WhatsAppBaseURL:       dep.Config.GetString("modules.twofactor.gateway.whatsapp.base_url"),
		WhatsAppPhoneNumberID: dep.Config.GetString("modules.twofactor.gateway.whatsapp.phone_number_id"),
		WhatsAppToken:         dep.Config.GetString("modules.twofactor.gateway.whatsapp.token"),
		TelegramBaseURL:       dep.Config.GetString("modules.twofactor.gateway.telegram.base_url"),
		TelegramBotToken:      dep.Config.GetString("modules.twofactor.gateway.telegram.bot_token"),
		TelegramChatIDs:       dep.Config.GetMap("modules.twofactor.gateway.telegram.chat_ids"),
		HTTPTimeout:           dep.Config.GetSecond("modules.twofactor.gateway.timeout_seconds"),
	}, gateway.Dependency{
		Mail:       dep.Mail,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return fmt.Errorf("init notification gateway: %w", err)
	}

	codeLength := dep.Config.GetInt("modules.twofactor.sms.code_length")
	if codeLength == 0 {
		codeLength = 6
	}
	smsCode, err := otp.NewNumeric(codeLength)
	if err != nil {
		return fmt.Errorf("init sms code generator: %w", err)
	}

	uc := usecase.New(usecase.Dependency{
		Store:           store,
		Accounts:        dbTwoFactor,
		Challenges:      challenges,
		RepoMessaging:   repoMsg,
		Gateway:         sender,
		Cooldown:        dep.Cooldown,
		Authorizer:      dep.Authorizer,
		Validator:       dep.Validator,
		Config:          dep.Config,
		Bcrypt:          dep.Bcrypt,
		Argon2ID:        dep.Argon2ID,
		HMAC:            dep.HMAC,
		MFAEncryptor:    dep.MFAEncryptor,
		MFARecoveryCode: dep.MFARecoveryCode,
		Totp:            dep.Totp,
		SMSCode:         smsCode,
		Token:           dep.Token,
		UUID:            dep.UUID,
		Clock:           dep.Clock,
		JWT:             dep.JWT,
		Instrument:      dep.Instrument,
		Goroutine:       dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

func storeDriver(cfg config.Config, key string) string {
	driver := strings.TrimSpace(cfg.GetString(key))
	if driver == "" {
		return StoreDriverPostgres
	}
	return driver
}

// bootstrapAdmin creates the configured security administrator once so a
// fresh deployment has someone who can unlock and reset accounts.
func bootstrapAdmin(dep Dependency, repo *db.DB) error {
	email := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.twofactor.bootstrap_admin.email")))
	password := dep.Config.GetString("modules.twofactor.bootstrap_admin.password")
	if email == "" || password == "" {
		return nil
	}

	_, err := repo.GetAccountByEmail(dep.Ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		return fmt.Errorf("lookup bootstrap admin: %w", err)
	}

	pw, err := dep.Bcrypt.Hash(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap admin password: %w", err)
	}

	roles := dep.Config.GetArray("modules.twofactor.bootstrap_admin.roles")
	if len(roles) == 0 {
		roles = []string{"security_admin"}
	}

	err = repo.CreateAccount(dep.Ctx, entity.Account{
		ID:           dep.UID.Generate(),
		Email:        email,
		FullName:     dep.Config.GetString("modules.twofactor.bootstrap_admin.full_name"),
		PasswordHash: string(pw),
		Phone:        dep.Config.GetString("modules.twofactor.bootstrap_admin.phone"),
		Roles:        roles,
	}, dep.Clock.Now())
	if errors.Is(err, goerror.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	slog.InfoContext(dep.Ctx, "bootstrap admin created", "email", email)
	return nil
}
