package router

import (
	"net/http"
	"slices"
	"strings"

	"github.com/shandysiswandi/campusguard/internal/pkg/config"
)

// middlewareMaintenance rejects routes listed in app.maintenance.endpoints.
// The list is read per request so a config reload takes effect at once.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg != nil {
				route := matchedRoutePath(r)
				blocked := slices.ContainsFunc(cfg.GetArray("app.maintenance.endpoints"), func(e string) bool {
					return strings.TrimSpace(e) == route
				})
				if blocked {
					writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
