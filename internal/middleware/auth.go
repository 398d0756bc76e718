package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/config"
)

// APIKeyAuth guards admin routes with the "api_key" request header
func APIKeyAuth(cfg config.AuthConfig, log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("api_key")

			if apiKey == "" {
				http.Error(w, "Unauthorized: API key required", http.StatusUnauthorized)
				return
			}

			if !validKey(cfg.APIKeys, apiKey) {
				log.Warn("rejected admin request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "Forbidden: Invalid API key", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validKey(keys []string, candidate string) bool {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			return true
		}
	}
	return false
}
