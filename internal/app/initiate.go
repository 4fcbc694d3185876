package app

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
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

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.token = uid.NewRandomToken()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.argon2id = hash.NewArgon2id(a.config.GetString("hash.argon2id.pepper"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("mfa.totp.issuer"),
		a.config.GetUint("mfa.totp.period"),
		a.config.GetUint("mfa.totp.skew"),
		libOTP.DigitsSix,
	)

	keyring, err := mfa.NewKeyring(a.config.GetUint16("mfa.key_id"), a.mfaKeys())
	if err != nil {
		slog.Error("failed to init mfa keyring", "error", err)
		os.Exit(1)
	}
	a.mfaEncryptor = mfa.NewAESGCMEncryptor(keyring)

	count, length := a.config.GetInt("mfa.recovery.count"), a.config.GetInt("mfa.recovery.length")
	if count == 0 {
		count = 10
	}
	if length == 0 {
		length = mfa.MinRecoveryLength
	}
	recovery, err := mfa.NewRecoveryCode(count, length)
	if err != nil {
		slog.Error("failed to init mfa recovery code", "error", err)
		os.Exit(1)
	}
	a.mfaRecoveryCode = recovery
}

// mfaKeys collects the current secret plus retired secrets kept for
// decrypting records sealed before a rotation.
func (a *App) mfaKeys() map[uint16][]byte {
	keys := make(map[uint16][]byte)

	decode := func(id uint16, raw string) {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
		if err != nil {
			slog.Error("failed to decode mfa secret", "key_id", id, "error", err)
			os.Exit(1)
		}
		if len(key) != 32 {
			slog.Error("failed to init mfacrypto, secret must be 32 bytes (AES-256)", "key_id", id)
			os.Exit(1)
		}
		keys[id] = key
	}

	for rawID, secret := range a.config.GetMap("mfa.retired_secrets") {
		id, err := strconv.ParseUint(rawID, 10, 16)
		if err != nil {
			slog.Error("failed to parse retired mfa key id", "key_id", rawID, "error", err)
			os.Exit(1)
		}
		decode(uint16(id), secret)
	}
	decode(a.config.GetUint16("mfa.key_id"), a.config.GetString("mfa.secret"))

	return keys
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	//nolint:gosec // pool sizes come from trusted config
	config.MaxConns = int32(a.config.GetInt("database.pool.max_conns"))
	//nolint:gosec // pool sizes come from trusted config
	config.MinConns = int32(a.config.GetInt("database.pool.min_conns"))
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.cooldown = cooldown.NewRedis(a.cacheConn)
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
		TLS:      a.config.GetBool("mail.tls"),
		Timeout:  a.config.GetSecond("mail.timeout_seconds"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initAuthz() {
	table := strings.TrimSpace(a.config.GetString("authz.table"))
	if table == "" {
		table = "campus_authz_rules"
	}
	channel := strings.TrimSpace(a.config.GetString("authz.reload_channel"))
	if channel == "" {
		channel = authz.DefaultReloadChannel
	}

	source := authz.NewPGSource(a.dbConn, table)
	if a.config.GetBool("database.auto_migrate") {
		if err := source.EnsureTable(a.ctx, channel); err != nil {
			slog.Error("failed to migrate authz table", "error", err)
			os.Exit(1)
		}
	}

	adapter, err := authz.NewAdapter(a.config.GetArray("authz.policies"), source)
	if err != nil {
		slog.Error("failed to create adapter authz", "error", err)
		os.Exit(1)
	}

	az, err := authz.New(adapter)
	if err != nil {
		slog.Error("failed to init authz", "error", err)
		os.Exit(1)
	}

	a.authz = az
	a.authzWatcher = authz.NewReloader(a.ctx, a.dbConn, channel, az)
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Retry-After", router.HeaderCorrelationID},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "AuthzReloader",
			fn: func(context.Context) error {
				if a.authzWatcher != nil {
					a.authzWatcher.Close()
				}

				return nil
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
