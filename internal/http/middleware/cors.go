package middleware

import (
	"net/http"
	"strings"
)

const (
	corsHeaders = "Authorization, Content-Type, X-Request-ID, X-Vapi-Secret"
	corsMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// originSet is the dashboard origins allowed to call the API. "*" admits
// every origin.
type originSet struct {
	any     bool
	origins map[string]struct{}
}

func newOriginSet(allowed []string) originSet {
	set := originSet{origins: make(map[string]struct{}, len(allowed))}
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		switch origin {
		case "":
		case "*":
			set.any = true
		default:
			set.origins[origin] = struct{}{}
		}
	}
	return set
}

func (s originSet) allows(origin string) bool {
	if origin == "" {
		return false
	}
	if s.any {
		return true
	}
	_, ok := s.origins[strings.ToLower(origin)]
	return ok
}

// CORS echoes allowed origins and answers preflight requests itself.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	set := newOriginSet(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if set.allows(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsHeaders)
				h.Set("Access-Control-Allow-Methods", corsMethods)
				h.Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
