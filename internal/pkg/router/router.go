package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/campusguard/internal/pkg/config"
	"github.com/shandysiswandi/campusguard/internal/pkg/goerror"
	"github.com/shandysiswandi/campusguard/internal/pkg/instrument"
	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
	"github.com/shandysiswandi/campusguard/internal/pkg/uid"
	"github.com/shandysiswandi/campusguard/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Handler returns a payload to encode as JSON, or an error.
type Handler func(r *Request) (any, error)

// Config holds what the default middleware chain needs.
type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

// Router wraps httprouter with the application middleware chain.
//
// Every route requires a bearer token unless it was registered through
// one of the Public* helpers.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware

	mu     sync.RWMutex
	public map[string]map[string]struct{}
}

func NewRouter(cfg Config) *Router {
	ro := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			SaveMatchedRoutePath:   true,
			NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
			}),
			MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
			}),
		},
		public: map[string]map[string]struct{}{},
	}

	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	ro.mws = []Middleware{
		middlewareRecoverer,
		middlewareIP,
		middlewareCorrelationID(cfg.UUID),
		middlewareObservability(ins),
		middlewareMaintenance(cfg.Config),
		middlewareAuthentication(cfg.JWT, ro.isPublic),
	}

	ro.PublicGET("/health", func(*Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})

	return ro
}

func (r *Router) markPublic(method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.public[method] == nil {
		r.public[method] = map[string]struct{}{}
	}
	r.public[method][path] = struct{}{}
}

func (r *Router) isPublic(method, path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.public[method][path]
	return ok
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

// PublicGET registers a GET route that skips authentication.
func (r *Router) PublicGET(path string, h Handler, mws ...Middleware) {
	r.markPublic(http.MethodGet, path)
	r.endpoint(http.MethodGet, path, h, mws...)
}

// PublicPOST registers a POST route that skips authentication.
func (r *Router) PublicPOST(path string, h Handler, mws ...Middleware) {
	r.markPublic(http.MethodPost, path)
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	chain := append(append([]Middleware{}, r.mws...), mws...)

	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			encodeError(re.Context(), w, err)
			return
		}
		encodeOK(w, resp)
	}), chain...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func encodeError(ctx context.Context, w http.ResponseWriter, err error) {
	gerr, ok := goerror.As(err)
	if !ok {
		slog.ErrorContext(ctx, "unclassified error reached transport", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}

	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	} else if len(gerr.Fields()) > 0 {
		resp.Error = gerr.Fields()
	}

	if v, ok := gerr.Fields()["retry_after_seconds"]; ok {
		w.Header().Set("Retry-After", v)
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func encodeOK(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := "request has been successfully"
	if m, ok := resp.(interface{ Message() string }); ok {
		msg = m.Message()
	}

	var meta map[string]any
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		meta = m.Meta()
	}

	writeJSON(w, successResponse{Message: msg, Data: resp, Meta: meta}, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
