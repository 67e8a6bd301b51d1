// Package ratelimit adapts a keyed limiter into chi middleware.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"

	dErrors "jobportal/pkg/domain-errors"
	"jobportal/pkg/platform/httputil"
	"jobportal/pkg/requestcontext"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// KeyFunc derives the limiter key from a request. An empty key bypasses limiting.
type KeyFunc func(r *http.Request) string

// ByUser keys requests on the authenticated user, scoped by prefix.
func ByUser(prefix string) KeyFunc {
	return func(r *http.Request) string {
		userID := requestcontext.UserID(r.Context())
		if userID.IsNil() {
			return ""
		}
		return prefix + ":" + userID.String()
	}
}

// Middleware rejects requests over the limit with 429. Limiter failures fail open.
func Middleware(limiter Limiter, keyFn KeyFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if limiter == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests, "Too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
