package middleware

import (
	"net/http"
	"strings"

	"github.com/factura-eu/api/internal/auth"
)

// RequireShopSession validates the Shopify session token sent as a Bearer
// token and stores the shop domain in the request context.
func RequireShopSession(verifier *auth.SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithShop(r.Context(), claims.Shop())))
		})
	}
}
