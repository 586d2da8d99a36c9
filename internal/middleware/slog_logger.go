package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestLog collects fields that inner middleware learn after the logger has
// already wrapped the request, such as the authenticated user.
type requestLog struct {
	userID string
}

type requestLogKey struct{}

// setLogUser records the authenticated user for the request log line.
// It is a no-op when the request is not wrapped by NewSlogLogger.
func setLogUser(ctx context.Context, userID string) {
	if rl, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		rl.userID = userID
	}
}

// NewSlogLogger returns a middleware that logs each request as a structured
// line via the provided slog.Logger. It captures method, path, HTTP status,
// duration, the request ID set by chi's RequestID middleware, and the user id
// when NewAuthenticator accepted a token.
//
// Wire it after chimiddleware.RequestID so the request ID is available.
// Server errors log at Error level, client errors at Warn.
func NewSlogLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rl := &requestLog{}
			r = r.WithContext(context.WithValue(r.Context(), requestLogKey{}, rl))

			// WrapResponseWriter intercepts WriteHeader so we can read the
			// status code after the downstream handler has run.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			log.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"user_id", rl.userID,
			)
		})
	}
}
