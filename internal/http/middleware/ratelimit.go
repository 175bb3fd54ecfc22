package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v10"

	apierrors "github.com/pribylovaa/robot-helper/internal/errors"
	logctx "github.com/pribylovaa/robot-helper/internal/pkg/log"
)

// Limiter — контракт GCRA-лимитера (реализуется *redis_rate.Limiter).
type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit ограничивает число запросов с одного IP на маршрут до perMinute в минуту.
// limiter == nil или perMinute <= 0 делает мидлвар no-op. При недоступности
// Redis запрос пропускается (fail open).
func RateLimit(limiter Limiter, prefix string, perMinute int) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil || perMinute <= 0 {
			return next
		}

		limit := redis_rate.PerMinute(perMinute)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + "rl:" + r.URL.Path + ":" + clientIP(r)

			res, err := limiter.Allow(r.Context(), key, limit)
			if err != nil {
				logctx.From(r.Context()).Warn("rate_limit_unavailable", slog.String("err", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(perMinute))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

			if res.Allowed == 0 {
				retry := int(math.Ceil(res.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				rateLimitedTotal.WithLabelValues(r.URL.Path).Inc()
				logctx.From(r.Context()).Info("rate_limited", slog.String("path", r.URL.Path))
				apierrors.WriteError(w, r, apierrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP — IP из RemoteAddr (без порта). X-Forwarded-For не учитывается:
// его легко подделать без доверенного прокси.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
