package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/robot-helper/internal/errors"
	logctx "github.com/pribylovaa/robot-helper/internal/pkg/log"
)

type userIDKey struct{}

// IdentityResolver превращает bearer-токен в ID пользователя.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, bearer string) (uuid.UUID, error)
}

// BearerToken извлекает токен из "Authorization: Bearer <token>".
// Схема сравнивается без учёта регистра; иначе — пустая строка.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(tok)
}

// RequireAuth пропускает запрос только с действительным access-токеном.
// ID пользователя кладётся в контекст (UserIDFrom) и в request-scoped логгер.
func RequireAuth(res IdentityResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := res.ResolveIdentity(r.Context(), BearerToken(r))
			if err != nil {
				logctx.From(r.Context()).Debug("auth_rejected", slog.String("err", err.Error()))
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := WithUserID(r.Context(), uid)
			ctx = logctx.With(ctx, slog.String("user_id", uid.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает ID аутентифицированного пользователя.
func UserIDFrom(ctx context.Context) (uuid.UUID, bool) {
	uid, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return uid, ok
}

// WithUserID кладёт ID пользователя в контекст так же, как RequireAuth.
func WithUserID(ctx context.Context, uid uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey{}, uid)
}
