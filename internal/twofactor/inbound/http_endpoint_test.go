package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/router"
	"github.com/shandysiswandi/campusguard/internal/twofactor/entity"
	"github.com/shandysiswandi/campusguard/internal/twofactor/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	login      *usecase.LoginOutput
	login2FAIn usecase.Login2FAInput
	disableIn  usecase.DisableInput
	adminID    int64
	err        error
}

func (f *fakeUC) Login(context.Context, usecase.LoginInput) (*usecase.LoginOutput, error) {
	return f.login, f.err
}

func (f *fakeUC) Login2FA(_ context.Context, in usecase.Login2FAInput) (*usecase.Login2FAOutput, error) {
	f.login2FAIn = in
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.Login2FAOutput{AccessToken: "jwt", Factor: entity.FactorBackupCode}, nil
}

func (f *fakeUC) LoginSMSChallenge(context.Context, usecase.LoginSMSChallengeInput) (*usecase.SMSChallengeOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &usecase.SMSChallengeOutput{Destination: "+*********67", ExpiresAt: time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)}, nil
}

func (f *fakeUC) SecurityStatus(context.Context) (*usecase.SecurityStatusOutput, error) {
	return &usecase.SecurityStatusOutput{AccountID: 7, State: entity.StateEnabled, BackupCodesRemaining: 9}, f.err
}

func (f *fakeUC) TOTPSetup(context.Context) (*usecase.TOTPSetupOutput, error) {
	return &usecase.TOTPSetupOutput{Secret: "SECRET", ProvisioningURI: "otpauth://totp/x"}, f.err
}

func (f *fakeUC) TOTPConfirm(context.Context, usecase.TOTPConfirmInput) (*usecase.TOTPConfirmOutput, error) {
	return &usecase.TOTPConfirmOutput{BackupCodes: []string{"AAAA-BBBB"}}, f.err
}

func (f *fakeUC) Disable(_ context.Context, in usecase.DisableInput) error {
	f.disableIn = in
	return f.err
}

func (f *fakeUC) RegenerateBackupCodes(context.Context, usecase.RegenerateBackupCodesInput) (*usecase.RegenerateBackupCodesOutput, error) {
	return &usecase.RegenerateBackupCodesOutput{BackupCodes: []string{"CCCC-DDDD"}}, f.err
}

func (f *fakeUC) ReauthSMSChallenge(context.Context) (*usecase.SMSChallengeOutput, error) {
	return f.LoginSMSChallenge(context.Background(), usecase.LoginSMSChallengeInput{})
}

func (f *fakeUC) AdminSecurityStatus(_ context.Context, in usecase.AdminAccountInput) (*usecase.SecurityStatusOutput, error) {
	f.adminID = in.AccountID
	return &usecase.SecurityStatusOutput{AccountID: in.AccountID}, f.err
}

func (f *fakeUC) AdminUnlock(_ context.Context, in usecase.AdminAccountInput) error {
	f.adminID = in.AccountID
	return f.err
}

func (f *fakeUC) AdminReset2FA(_ context.Context, in usecase.AdminAccountInput) error {
	f.adminID = in.AccountID
	return f.err
}

type fakeJWT struct{}

func (fakeJWT) Generate(jwt.Subject) (string, error) { return "", nil }

func (fakeJWT) Verify(tok string) (jwt.Claims, error) {
	if tok != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{AccountID: 7}, nil
}

type staticID string

func (s staticID) Generate() string { return string(s) }

func newServer(f *fakeUC) *router.Router {
	r := router.NewRouter(router.Config{JWT: fakeJWT{}, UUID: staticID("cid")})
	RegisterHTTPEndpoint(r, f)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, authed bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer good")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestLogin_RequiresTwoFactor(t *testing.T) {
	f := &fakeUC{login: &usecase.LoginOutput{
		RequiresTwoFactor:  true,
		ChallengeToken:     "tok",
		ChallengeExpiresAt: time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC),
		Methods:            []entity.Factor{entity.FactorTOTP, entity.FactorSMS},
	}}

	rec, out := do(t, newServer(f), http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.test","password":"pw"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	data := out["data"].(map[string]any)
	assert.Equal(t, true, data["requires_2fa"])
	assert.Equal(t, "tok", data["challenge_token"])
	assert.Equal(t, []any{"totp", "sms"}, data["methods"])
	assert.NotContains(t, data, "access_token")
}

func TestLogin_LockedSetsRetryAfter(t *testing.T) {
	f := &fakeUC{err: goerror.NewBusinessCause(entity.ErrAccountLocked, "account is temporarily locked",
		goerror.CodeLocked, "retry_after_seconds", "90")}

	rec, out := do(t, newServer(f), http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.test","password":"pw"}`, false)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.Equal(t, "account is temporarily locked", out["message"])
}

func TestLogin2FA_PassesFactor(t *testing.T) {
	f := &fakeUC{}

	rec, out := do(t, newServer(f), http.MethodPost, "/api/v1/auth/login/2fa",
		`{"challenge_token":"tok","backup_code":"AAAA-BBBB"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", f.login2FAIn.ChallengeToken)
	assert.Equal(t, "AAAA-BBBB", f.login2FAIn.BackupCode)
	assert.Equal(t, "backup_code", out["data"].(map[string]any)["factor"])

	rec, _ = do(t, newServer(f), http.MethodPost, "/api/v1/auth/login/2fa", `{"challenge_token":"tok","pin":"1"}`, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSMSChallenge_Accepted(t *testing.T) {
	rec, out := do(t, newServer(&fakeUC{}), http.MethodPost, "/api/v1/auth/login/2fa/sms", `{"challenge_token":"tok"}`, false)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "+*********67", out["data"].(map[string]any)["destination"])

	f := &fakeUC{err: goerror.NewBusinessCause(entity.ErrGatewayUnavailable, "unavailable", goerror.CodeUnavailable)}
	rec, _ = do(t, newServer(f), http.MethodPost, "/api/v1/auth/2fa/sms", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSelfService_RequiresAuthentication(t *testing.T) {
	rec, _ := do(t, newServer(&fakeUC{}), http.MethodGet, "/api/v1/auth/2fa", "", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := do(t, newServer(&fakeUC{}), http.MethodGet, "/api/v1/auth/2fa", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "enabled", data["state"])
	assert.Equal(t, true, data["enabled"])
	assert.EqualValues(t, 9, data["backup_codes_remaining"])
}

func TestDisable_NoContent(t *testing.T) {
	f := &fakeUC{}

	rec, _ := do(t, newServer(f), http.MethodPost, "/api/v1/auth/2fa/disable", `{"password":"pw","totp_code":"123456"}`, true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "pw", f.disableIn.Password)
	assert.Equal(t, "123456", f.disableIn.TOTPCode)
}

func TestAdmin_Routes(t *testing.T) {
	f := &fakeUC{}
	srv := newServer(f)

	rec, _ := do(t, srv, http.MethodPost, "/api/v1/admin/accounts/1001/unlock", "", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.EqualValues(t, 1001, f.adminID)

	rec, _ = do(t, srv, http.MethodPost, "/api/v1/admin/accounts/abc/2fa/reset", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, out := do(t, srv, http.MethodGet, "/api/v1/admin/accounts/55/security", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 55, out["data"].(map[string]any)["account_id"])
}
