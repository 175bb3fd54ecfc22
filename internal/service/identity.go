package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/token"
)

// ResolveIdentity превращает bearer-токен в ID пользователя.
//
// Пустой токен — ErrUnauthenticated (кодек не вызывается). Ошибка декодирования,
// пустой/нечитаемый subject, typ != access или отозванный jti — ErrInvalidToken.
// Недоступность denylist — внутренняя ошибка (fail closed).
func (s *Service) ResolveIdentity(ctx context.Context, bearer string) (uuid.UUID, error) {
	const op = "service.identity.ResolveIdentity"

	if bearer == "" {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	claims, err := s.decode(ctx, bearer, token.Access)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// decode проверяет токен, его тип, наличие subject и отсутствие в denylist.
func (s *Service) decode(ctx context.Context, raw string, kind token.Kind) (*token.Claims, error) {
	const op = "service.identity.decode"

	claims, err := s.codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.Subject == "" || claims.Type != kind {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if s.denylist != nil && claims.ID != "" {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			log.From(ctx).Error("denylist_lookup_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if revoked {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}
	}

	return claims, nil
}
