package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func newTestRouter() *Router {
	return NewRouter(Config{JWT: fakeJWT{}, UUID: staticID("cid-generated")})
}

func serve(t *testing.T, r http.Handler, method, path, body string, hdr map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRouter_AuthAndPublic(t *testing.T) {
	ro := newTestRouter()
	ro.GET("/private", func(r *Request) (any, error) {
		return map[string]int64{"account_id": jwt.GetAuth(r.Context()).AccountID}, nil
	})
	ro.PublicPOST("/open", func(*Request) (any, error) {
		return map[string]string{"ok": "yes"}, nil
	})

	rec, _ := serve(t, ro, http.MethodGet, "/private", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, ro, http.MethodGet, "/private", "", map[string]string{"Authorization": "Bearer bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := serve(t, ro, http.MethodGet, "/private", "", map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 7, body["data"].(map[string]any)["account_id"])
	assert.Equal(t, "cid-generated", rec.Header().Get(HeaderCorrelationID))

	rec, _ = serve(t, ro, http.MethodPost, "/open", "", map[string]string{HeaderCorrelationID: "from-client"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from-client", rec.Header().Get(HeaderCorrelationID))

	rec, _ = serve(t, ro, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ErrorEncoding(t *testing.T) {
	locked := errors.New("locked")
	ro := newTestRouter()
	ro.PublicPOST("/locked", func(*Request) (any, error) {
		return nil, goerror.NewBusinessCause(locked, "account is temporarily locked", goerror.CodeLocked, "retry_after_seconds", "120")
	})
	ro.PublicPOST("/boom", func(*Request) (any, error) {
		return nil, errors.New("raw")
	})
	ro.PublicPOST("/panic", func(*Request) (any, error) {
		panic("kaboom")
	})

	rec, body := serve(t, ro, http.MethodPost, "/locked", "", nil)
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "120", rec.Header().Get("Retry-After"))
	assert.Equal(t, "account is temporarily locked", body["message"])
	assert.Equal(t, "120", body["error"].(map[string]any)["retry_after_seconds"])

	rec, body = serve(t, ro, http.MethodPost, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["message"])

	rec, _ = serve(t, ro, http.MethodPost, "/panic", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequest_DecodeBody(t *testing.T) {
	type payload struct {
		Code string `json:"code"`
	}

	ro := newTestRouter()
	ro.PublicPOST("/decode", func(r *Request) (any, error) {
		var p payload
		if err := r.DecodeBody(&p); err != nil {
			return nil, err
		}
		return p, nil
	})

	rec, body := serve(t, ro, http.MethodPost, "/decode", `{"code":"123456"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456", body["data"].(map[string]any)["code"])

	rec, _ = serve(t, ro, http.MethodPost, "/decode", `{"code":"1","extra":true}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, ro, http.MethodPost, "/decode", `{"code":"1"}{"code":"2"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequest_GetQueryInt32(t *testing.T) {
	ro := newTestRouter()
	ro.PublicGET("/page", func(r *Request) (any, error) {
		limit, err := r.GetQueryInt32("limit")
		if err != nil {
			return nil, err
		}
		return map[string]int32{"limit": limit}, nil
	})

	rec, body := serve(t, ro, http.MethodGet, "/page?limit=%2025%20", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 25, body["data"].(map[string]any)["limit"])

	_, body = serve(t, ro, http.MethodGet, "/page", "", nil)
	assert.EqualValues(t, 0, body["data"].(map[string]any)["limit"])

	rec, _ = serve(t, ro, http.MethodGet, "/page?limit=ten", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_NoContent(t *testing.T) {
	ro := newTestRouter()
	ro.PublicPOST("/empty", func(*Request) (any, error) { return nil, nil })

	rec, _ := serve(t, ro, http.MethodPost, "/empty", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", realIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", realIP(req))
}
