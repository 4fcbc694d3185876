package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/campusguard/internal/pkg/authz"
	"github.com/shandysiswandi/campusguard/internal/pkg/clock"
	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/cooldown"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/campusguard/internal/pkg/hash"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/mfa"
	"github.com/shandysiswandi/campusguard/internal/pkg/otp"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/pkg/validator"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/shandysiswandi/campusguard/internal/twofactor/outbound/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const (
	aliceID       = int64(1001)
	aliceEmail    = "alice@campus.test"
	alicePassword = "Correct-Horse-9"
	alicePhone    = "+15551234567"

	bobID    = int64(1002)
	bobEmail = "bob@campus.test"

	adminID = int64(1)

	fixedSMSCode = "482913"
)

const testConfig = `
modules:
  twofactor:
    lockout:
      threshold: 5
      duration_minutes: 120
    sms:
      ttl_minutes: 5
      max_attempts: 3
      resend_cooldown_seconds: 30
      message_template: "code {code} valid {minutes}m"
    login:
      challenge_ttl_minutes: 5
    gateway:
      timeout_seconds: 1
`

type fakeGateway struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	sent  []string
	dest  []string
}

func (g *fakeGateway) Send(ctx context.Context, destination, message string) error {
	g.mu.Lock()
	err, delay := g.err, g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, message)
	g.dest = append(g.dest, destination)
	return nil
}

func (g *fakeGateway) set(err error, delay time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err, g.delay = err, delay
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []entity.SecurityEvent
}

func (m *fakeMessaging) PublishSecurityEvent(_ context.Context, ev entity.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *fakeMessaging) has(typ entity.EventType, accountID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.Type == typ && ev.AccountID == accountID {
			return true
		}
	}
	return false
}

type fixedCode string

func (c fixedCode) Generate() (string, error) { return string(c), nil }

// conflictStore loses every conditional save.
type conflictStore struct {
	*memory.Store
	saves int
}

func (c *conflictStore) SaveSecurity(context.Context, *entity.AccountSecurity) error {
	c.saves++
	return goerror.ErrConflict
}

type harness struct {
	uc       *Usecase
	clock    *clock.Fixed
	store    *memory.Store
	accounts *memory.Accounts
	gateway  *fakeGateway
	events   *fakeMessaging
	totp     *otp.TOTP
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := clock.NewFixed(testNow)

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	bc := hash.NewBcrypt(bcrypt.MinCost, "pepper")
	pw, err := bc.Hash(alicePassword)
	require.NoError(t, err)

	accounts := memory.NewAccounts(
		entity.Account{ID: aliceID, Email: aliceEmail, FullName: "Alice", PasswordHash: string(pw), Phone: alicePhone},
		entity.Account{ID: bobID, Email: bobEmail, FullName: "Bob", PasswordHash: string(pw)},
		entity.Account{ID: adminID, Email: "admin@campus.test", FullName: "Admin", PasswordHash: string(pw), Roles: []string{"security_admin"}},
	)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	keyring, err := mfa.NewKeyring(1, map[uint16][]byte{1: key})
	require.NoError(t, err)

	recovery, err := mfa.NewRecoveryCode(10, 8)
	require.NoError(t, err)

	adapter, err := authz.NewAdapter([]string{"p, security_admin, account_security, *"})
	require.NoError(t, err)
	az, err := authz.New(adapter)
	require.NoError(t, err)

	uuid := uid.NewUUID()
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"),
		Issuer:    "campusguard-test",
		Audiences: []string{"campusguard"},
		TTL:       15 * time.Minute,
		Clock:     clk,
		UUID:      uuid,
	})
	require.NoError(t, err)

	argon := hash.NewArgon2idWithParams("pepper", hash.Argon2idParams{
		Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})

	h := &harness{
		clock:    clk,
		store:    memory.NewStore(),
		accounts: accounts,
		gateway:  &fakeGateway{},
		events:   &fakeMessaging{},
		totp:     otp.NewTOTP("CampusGuard", 30, 1, libotp.DigitsSix),
	}

	h.uc = New(Dependency{
		Store:           h.store,
		Accounts:        accounts,
		Challenges:      memory.NewChallenges(clk),
		RepoMessaging:   h.events,
		Gateway:         h.gateway,
		Cooldown:        cooldown.NewMemory(clk),
		Authorizer:      az,
		Validator:       v,
		Config:          cfg,
		Bcrypt:          bc,
		Argon2ID:        argon,
		HMAC:            hash.NewHMACSHA256("hmac-secret"),
		MFAEncryptor:    mfa.NewAESGCMEncryptor(keyring),
		MFARecoveryCode: recovery,
		Totp:            h.totp,
		SMSCode:         fixedCode(fixedSMSCode),
		Token:           uid.NewRandomToken(),
		UUID:            uuid,
		Clock:           clk,
		JWT:             tokens,
		Instrument:      instrument.NewNoop(),
		Goroutine:       goroutine.NewManager(8),
	})

	return h
}

func authCtx(accountID int64, roles ...string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: accountID, Roles: roles})
}

// enroll runs setup and confirm for accountID and returns the plaintext
// secret and backup codes.
func (h *harness) enroll(t *testing.T, accountID int64) (string, []string) {
	t.Helper()

	ctx := authCtx(accountID)
	setup, err := h.uc.TOTPSetup(ctx)
	require.NoError(t, err)

	out, err := h.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: h.code(t, setup.Secret)})
	require.NoError(t, err)

	return setup.Secret, out.BackupCodes
}

func (h *harness) code(t *testing.T, secret string) string {
	t.Helper()

	code, err := h.totp.GenerateCode(secret, h.clock.Now())
	require.NoError(t, err)
	return code
}

func (h *harness) record(t *testing.T, accountID int64) *entity.AccountSecurity {
	t.Helper()

	rec, err := h.store.GetSecurity(context.Background(), accountID)
	require.NoError(t, err)
	return rec
}

func (h *harness) mutate(t *testing.T, accountID int64, fn func(rec *entity.AccountSecurity)) {
	t.Helper()

	rec, err := h.store.GetSecurity(context.Background(), accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		rec, err = entity.NewAccountSecurity(accountID), nil
	}
	require.NoError(t, err)

	fn(rec)
	require.NoError(t, h.store.SaveSecurity(context.Background(), rec))
}

func (h *harness) loginChallenge(t *testing.T) string {
	t.Helper()

	out, err := h.uc.Login(context.Background(), LoginInput{Email: aliceEmail, Password: alicePassword})
	require.NoError(t, err)
	require.True(t, out.RequiresTwoFactor)
	require.NotEmpty(t, out.ChallengeToken)
	return out.ChallengeToken
}

func assertCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	ge, ok := goerror.As(err)
	require.True(t, ok, "expected goerror, got %v", err)
	assert.Equal(t, code, ge.Code())
}

func TestWithRecord_ConflictRetriedOnceThenSurfaced(t *testing.T) {
	h := newHarness(t)
	cs := &conflictStore{Store: h.store}
	h.uc.store = cs

	calls := 0
	_, err := h.uc.withRecord(context.Background(), aliceID, func(*entity.AccountSecurity, time.Time) error {
		calls++
		return nil
	})

	assert.True(t, errors.Is(err, entity.ErrConflict))
	assertCode(t, err, goerror.CodeConflict)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, cs.saves)
}

func TestWithRecord_PlainErrorSkipsSave(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.withRecord(context.Background(), aliceID, func(rec *entity.AccountSecurity, _ time.Time) error {
		rec.FailedAttempts = 3
		return errInvalidCode()
	})
	require.ErrorIs(t, err, entity.ErrInvalidCode)

	_, err = h.store.GetSecurity(context.Background(), aliceID)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestWithRecord_PersistedOutcomeIsSaved(t *testing.T) {
	h := newHarness(t)

	saved, err := h.uc.withRecord(context.Background(), aliceID, func(rec *entity.AccountSecurity, _ time.Time) error {
		rec.FailedAttempts = 3
		return persistThen(errInvalidCode())
	})
	require.ErrorIs(t, err, entity.ErrInvalidCode)
	require.NotNil(t, saved)
	assert.EqualValues(t, 1, saved.Version)
	assert.Equal(t, 3, h.record(t, aliceID).FailedAttempts)
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "+*********67", maskPhone("+15551234567"))
	assert.Equal(t, "*****89", maskPhone("5555589"))
	assert.Equal(t, "**", maskPhone("12"))
}

func TestFactorInput_Pick(t *testing.T) {
	f, code, err := FactorInput{BackupCode: "ABCD-EFGH"}.pick()
	require.NoError(t, err)
	assert.Equal(t, entity.FactorBackupCode, f)
	assert.Equal(t, "ABCD-EFGH", code)

	_, _, err = FactorInput{}.pick()
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)

	_, _, err = FactorInput{TOTPCode: "123456", SMSCode: "123456"}.pick()
	assert.ErrorIs(t, err, entity.ErrInvalidRequest)
}
