package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shandysiswandi/campusguard/internal/notification/entity"
	"github.com/shandysiswandi/campusguard/internal/notification/usecase"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUC struct {
	fakeConsumer
	listIn usecase.ListSecurityAlertsInput
}

func (f *fakeUC) ListSecurityAlerts(_ context.Context, in usecase.ListSecurityAlertsInput) ([]entity.SecurityAlert, error) {
	f.listIn = in
	return []entity.SecurityAlert{{
		ID:         42,
		TriggerKey: entity.TriggerKeyAccountLocked,
		Subject:    "Your account is temporarily locked",
		Status:     entity.DeliveryStatusSent,
		OccurredAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}}, nil
}

type fakeJWT struct{}

func (fakeJWT) Generate(jwt.Subject) (string, error) { return "", nil }

func (fakeJWT) Verify(tok string) (jwt.Claims, error) {
	if tok != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{AccountID: 1001}, nil
}

func TestListSecurityAlerts_Endpoint(t *testing.T) {
	f := &fakeUC{}
	r := router.NewRouter(router.Config{JWT: fakeJWT{}, UUID: staticID("cid")})
	RegisterHTTPEndpoint(r, f)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notification/security-alerts?limit=5&offset=10", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data SecurityAlertsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data.Alerts, 1)
	assert.EqualValues(t, 42, out.Data.Alerts[0].ID)
	assert.Equal(t, "account_locked", out.Data.Alerts[0].Type)
	assert.Equal(t, "sent", out.Data.Alerts[0].Status)
	assert.EqualValues(t, 5, f.listIn.Limit)
	assert.EqualValues(t, 10, f.listIn.Offset)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/notification/security-alerts?limit=x", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/notification/security-alerts", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
