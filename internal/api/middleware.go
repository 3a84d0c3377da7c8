package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const usernameKey contextKey = "username"

const tokenCookie = "token"

// UsernameFromContext returns the authenticated username, if any.
func UsernameFromContext(ctx context.Context) string {
	v, _ := ctx.Value(usernameKey).(string)
	return v
}

// JWTAuthMiddleware accepts a token from the Authorization header or the
// token cookie.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			Error(w, http.StatusUnauthorized, "Autenticação necessária")
			return
		}

		username, err := h.tokens.ValidateJWT(tokenString)
		if err != nil {
			Error(w, http.StatusUnauthorized, "Token inválido")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// CORS returns middleware that handles CORS headers.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			explicit := false
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
				}
				if o != "*" && o == origin {
					explicit = true
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Add("Vary", "Origin")
				// credentials only for explicitly listed origins
				if explicit {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one structured line per request through logger, or
// through slog.Default when logger is nil.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&slogFormatter{logger: logger})
}

type slogFormatter struct {
	logger *slog.Logger
}

func (f *slogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	logger := f.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &slogEntry{logger: logger.With(
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"request_id", middleware.GetReqID(r.Context()),
	)}
}

type slogEntry struct {
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	e.logger.Log(context.Background(), level, "request completed",
		"status", status, "bytes", bytes, "duration_ms", elapsed.Milliseconds())
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("request panicked", "panic", v, "stack", string(stack))
}
