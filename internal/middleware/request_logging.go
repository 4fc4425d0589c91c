package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"tecnobra-backend/internal/timeutil"
)

// RequestLogger logs one line per API request from a background goroutine
type RequestLogger struct {
	logChan chan requestLog
	done    chan struct{}
}

type requestLog struct {
	method   string
	path     string
	status   int
	size     int
	duration time.Duration
	ip       string
	user     string
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

func NewRequestLogger() *RequestLogger {
	m := &RequestLogger{
		logChan: make(chan requestLog, 1000),
		done:    make(chan struct{}),
	}
	go m.asyncLogWriter()
	return m
}

func (m *RequestLogger) asyncLogWriter() {
	defer close(m.done)
	for e := range m.logChan {
		user := e.user
		if user == "" {
			user = "-"
		}
		log.Printf("[API] %s %s %d %dB %s ip=%s user=%s",
			e.method, e.path, e.status, e.size, e.duration.Round(time.Microsecond), e.ip, user)
	}
}

// Handler returns the middleware handler
func (m *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shouldSkipLogging(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := timeutil.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		// The user is only known after auth runs deeper in the chain
		var user string
		next.ServeHTTP(wrapped, r.WithContext(withUserSlot(r.Context(), &user)))

		entry := requestLog{
			method:   r.Method,
			path:     sanitizePath(r.URL.Path),
			status:   wrapped.statusCode,
			size:     wrapped.bytesWritten,
			duration: time.Since(start),
			ip:       getClientIP(r),
			user:     user,
		}

		select {
		case m.logChan <- entry:
		default:
			log.Printf("[API] Log buffer full, dropping log entry for %s", r.URL.Path)
		}
	})
}

// Close flushes pending entries
func (m *RequestLogger) Close() {
	close(m.logChan)
	<-m.done
}

// shouldSkipLogging returns true for paths that shouldn't be logged
func shouldSkipLogging(path string) bool {
	skipPaths := []string{
		"/health",
		"/metrics",
		"/favicon.ico",
		"/ws/",
	}

	for _, skip := range skipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}

	return false
}

// sanitizePath removes sensitive data from paths
func sanitizePath(path string) string {
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 500 {
		path = path[:500]
	}
	return path
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
