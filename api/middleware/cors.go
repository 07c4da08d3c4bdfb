package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/vaultcast/storefront-backend/pkg/types"
)

var defaultCORSOrigins = []string{"http://localhost:3000"}

// CORS returns middleware that applies the configured origin policy. origins
// is a comma separated list; "*" allows any origin without credentials.
func CORS(origins string) func(http.Handler) http.Handler {
	allowed := ParseOrigins(origins)
	wildcard := len(allowed) == 1 && allowed[0] == "*"
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", sessionHeader, "X-Requested-With"},
		ExposedHeaders:   []string{sessionHeader, types.RequestIDHeader, ReplayedHeader},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}).Handler
}

func ParseOrigins(raw string) []string {
	out := []string{}
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	if len(out) == 0 {
		return defaultCORSOrigins
	}
	return out
}
