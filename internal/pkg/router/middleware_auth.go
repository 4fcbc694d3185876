package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/campusguard/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, isPublic func(method, path string) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if verifier == nil || len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
