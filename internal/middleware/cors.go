package middleware

import (
	"net/http"
	"strings"

	"tecnobra-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS lets the dashboard call the API from its own origin. Tokens travel
// in the Authorization header, so no credentials mode is needed.
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CorsAllowedOrigins,
		AllowedMethods: cfg.Server.CorsAllowedMethods,
		AllowedHeaders: cfg.Server.CorsAllowedHeaders,
		// report downloads carry the file name here
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         600,
	})
	return c.Handler
}

// OriginChecker applies the CORS origin list to websocket upgrades.
// Requests without an Origin header come from native clients and pass.
func OriginChecker(cfg *config.Config) func(*http.Request) bool {
	allowed := cfg.Server.CorsAllowedOrigins
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
