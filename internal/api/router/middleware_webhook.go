package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// vapiSecretHeader carries the server secret VAPI sends with every webhook.
const vapiSecretHeader = "X-Vapi-Secret"

// requireWebhookSecret rejects provider callbacks that do not carry the
// shared secret. When expected is empty, the middleware is a no-op.
func requireWebhookSecret(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(vapiSecretHeader))
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				http.Error(w, "invalid webhook secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
