package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/interviewme/interviewme/config"
	"github.com/interviewme/interviewme/internal/auth"
	"github.com/interviewme/interviewme/internal/clients"
)

type contextKey string

const claimsContextKey contextKey = "auth-claims"

// openPaths bypass bearer authentication.
var openPaths = map[string]bool{
	"/health":         true,
	"/api/auth/token": true,
}

// timingResponseWriter stamps X-Processing-Time the moment the status line
// goes out and remembers the status for the request log.
type timingResponseWriter struct {
	http.ResponseWriter
	start       time.Time
	statusCode  int
	wroteHeader bool
}

func (trw *timingResponseWriter) WriteHeader(code int) {
	if !trw.wroteHeader {
		trw.Header().Set("X-Processing-Time", fmt.Sprintf("%f", time.Since(trw.start).Seconds()))
		trw.statusCode = code
		trw.wroteHeader = true
	}
	trw.ResponseWriter.WriteHeader(code)
}

func (trw *timingResponseWriter) Write(b []byte) (int, error) {
	if !trw.wroteHeader {
		trw.WriteHeader(http.StatusOK)
	}
	return trw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trw := &timingResponseWriter{ResponseWriter: w, start: time.Now(), statusCode: http.StatusOK}
		next.ServeHTTP(trw, r)
		slog.Info("[Server] request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", trw.statusCode),
			slog.String("duration", time.Since(trw.start).String()),
			slog.String("remote", r.RemoteAddr))
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("[Server] panic recovered",
					slog.Any("error", rec),
					slog.String("stack", string(debug.Stack())))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware enforces a per-client per-minute budget in Valkey and
// reports the budget in X-Rate-Limit headers. When Valkey is unreachable the
// limiter fails open.
func rateLimitMiddleware(next http.Handler) http.Handler {
	limit := int64(config.GetEnvInt("RATE_LIMIT_PER_MINUTE", 60))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		window := time.Now().Truncate(time.Minute)
		reset := window.Add(time.Minute).Unix()

		w.Header().Set("X-Rate-Limit-Limit", fmt.Sprintf("%d", limit))
		w.Header().Set("X-Rate-Limit-Reset", fmt.Sprintf("%d", reset))

		if !clients.ValkeyInitialized() {
			w.Header().Set("X-Rate-Limit-Remaining", fmt.Sprintf("%d", limit))
			next.ServeHTTP(w, r)
			return
		}

		count, err := clients.GetValkeyClient().IncrRateLimit(r.Context(), clientID(r), window)
		if err != nil {
			slog.Warn("[Server] Rate limiter unavailable, failing open",
				slog.String("error", err.Error()))
			w.Header().Set("X-Rate-Limit-Remaining", fmt.Sprintf("%d", limit))
			next.ServeHTTP(w, r)
			return
		}

		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-Rate-Limit-Remaining", fmt.Sprintf("%d", remaining))

		if count > limit {
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientID(r *http.Request) string {
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if openPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) *auth.CustomClaims {
	claims, _ := ctx.Value(claimsContextKey).(*auth.CustomClaims)
	return claims
}
