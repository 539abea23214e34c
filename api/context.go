package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/fieldlens-backend/services"
)

// userNameHeader names the acting user. There is no authentication; the header is trusted.
const userNameHeader = "X-User-Name"

// identityMiddleware stores the acting user's name in the request context
func identityMiddleware(defaultUser string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get(userNameHeader))
			if name == "" {
				name = defaultUser
			}
			next.ServeHTTP(w, r.WithContext(services.WithUser(r.Context(), name)))
		})
	}
}
