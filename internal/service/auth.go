package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/pkg/redact"
	"github.com/pribylovaa/robot-helper/internal/storage"
	"github.com/pribylovaa/robot-helper/internal/token"
	"github.com/pribylovaa/robot-helper/internal/validation"
)

// Register регистрирует нового пользователя.
//
// Порядок: валидация, проверка username, проверка email (первый конфликт
// возвращается сразу, без хэширования), хэширование, сохранение. Конфликт
// уникальности на уровне БД (гонка между проверкой и вставкой) маппится
// в те же ErrUsernameTaken/ErrEmailTaken.
func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx)

	in, err := validation.Registration(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UserByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.storage.UserByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		IsActive:     !s.cfg.RequireActivation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapDuplicate(err))
	}

	lg.Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	return user, nil
}

// mapDuplicate переводит конфликт уникальности хранилища в ошибку сервиса.
func mapDuplicate(err error) error {
	switch {
	case errors.Is(err, storage.ErrUsernameExists):
		return ErrUsernameTaken
	case errors.Is(err, storage.ErrEmailExists):
		return ErrEmailTaken
	case errors.Is(err, storage.ErrAlreadyExists):
		return ErrDuplicateIdentity
	default:
		return err
	}
}

// Authenticate выполняет вход по email+пароль и выдаёт пару токенов.
// Неизвестный email, неверный пароль и неактивная запись неразличимы
// (ErrInvalidCredentials); для неизвестного email выполняется проверка
// против хэша-заглушки, чтобы время ответа не выдавало существование адреса.
func (s *Service) Authenticate(ctx context.Context, email, pass string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.Authenticate"

	lg := log.From(ctx)

	normEmail, err := validation.Email(email)
	if err != nil {
		s.hasher.VerifyDummy(pass)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hasher.VerifyDummy(pass)
			lg.Info("login_failed", slog.String("email", redact.Email(normEmail)))
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(pass, user.PasswordHash) || !user.IsActive {
		lg.Info("login_failed",
			slog.String("email", redact.Email(normEmail)),
			slog.Bool("active", user.IsActive),
		)
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	if err := s.storage.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// вход уже состоялся: отметка времени не должна его ломать.
		lg.Warn("last_login_update_failed",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
			slog.String("err", err.Error()),
		)
	} else {
		user.LastLogin = &now
	}

	lg.Info("user_logged_in", slog.String("user_id", user.ID.String()))

	return pair, user, nil
}

// RefreshTokens обменивает refresh-токен на новую пару с полными TTL.
// Предъявленный refresh-токен остаётся действительным до истечения
// (или до Logout).
func (s *Service) RefreshTokens(ctx context.Context, refresh string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshTokens"

	if refresh == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, err := s.decode(ctx, refresh, token.Refresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	pair, err := s.issuePair(uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, nil
}

// Logout отзывает access-токен и, если предъявлен, refresh-токен того же
// пользователя. Записи в denylist живут ровно остаток жизни токена.
// Некорректный или чужой refresh-токен игнорируется.
func (s *Service) Logout(ctx context.Context, access, refresh string) error {
	const op = "service.auth.Logout"

	lg := log.From(ctx)

	if s.denylist == nil {
		return fmt.Errorf("%s: %w", op, ErrRevocationUnavailable)
	}

	if access == "" {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	ac, err := s.decode(ctx, access, token.Access)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.revoke(ctx, ac); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if refresh != "" {
		rc, err := s.decode(ctx, refresh, token.Refresh)
		switch {
		case err != nil:
			lg.Warn("logout_refresh_ignored",
				slog.String("reason", "invalid"),
				slog.String("refresh_token", redact.Token()),
			)
		case rc.Subject != ac.Subject:
			lg.Warn("logout_refresh_ignored",
				slog.String("reason", "subject_mismatch"),
				slog.String("refresh_token", redact.Token()),
			)
		default:
			if err := s.revoke(ctx, rc); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	lg.Info("user_logged_out", slog.String("user_id", ac.Subject))

	return nil
}

func (s *Service) revoke(ctx context.Context, c *token.Claims) error {
	if c.ID == "" {
		return nil
	}

	ttl := c.ExpiresAtTime().Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	// секунда запаса на округление exp.
	return s.denylist.Revoke(ctx, c.ID, ttl+time.Second)
}

// issuePair выпускает access и refresh токены для пользователя.
func (s *Service) issuePair(uid uuid.UUID) (*models.TokenPair, error) {
	const op = "service.auth.issuePair"

	access, accessExp, err := s.codec.Issue(uid.String(), token.Access, s.cfg.AccessTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, refreshExp, err := s.codec.Issue(uid.String(), token.Refresh, s.cfg.RefreshTokenTTL())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}
