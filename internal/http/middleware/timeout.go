package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/pribylovaa/robot-helper/internal/pkg/log"
)

// Timeout ограничивает обработку запроса сроком d: контекст запроса получает
// deadline не позже now+d (более ранний deadline родителя сохраняется).
// Если хендлер вернулся по истечении срока, пишется request_deadline_exceeded.
// d <= 0 — мидлвар no-op.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logctx.From(r.Context()).Warn("request_deadline_exceeded",
					slog.String("path", r.URL.Path),
					slog.Duration("limit", d),
				)
			}
		})
	}
}
