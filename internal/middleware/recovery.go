package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"tecnobra-backend/internal/metrics"
	"tecnobra-backend/pkg/utils"
)

// PanicRecovery answers 500 when a handler panics and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.PanicsTotal.Inc()
			log.Printf("[Recovery] PANIC on %s %s: %v\n%s", r.Method, sanitizePath(r.URL.Path), rec, debug.Stack())
			utils.Error(w, http.StatusInternalServerError, "Internal server error")
		}()

		next.ServeHTTP(w, r)
	})
}
