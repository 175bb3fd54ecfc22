package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/pkg/log"
	"github.com/pribylovaa/robot-helper/internal/pkg/redact"
	"github.com/pribylovaa/robot-helper/internal/storage"
	"github.com/pribylovaa/robot-helper/internal/validation"
)

// authorizeUser загружает вызывающего и проверяет, что он — сам target
// или суперпользователь. Удалённый вызывающий — ErrInvalidToken.
func (s *Service) authorizeUser(ctx context.Context, callerID, targetID uuid.UUID) error {
	const op = "service.users.authorizeUser"

	if callerID == targetID {
		return nil
	}

	caller, err := s.storage.UserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !caller.IsSuperuser {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	return nil
}

func (s *Service) userByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.storage.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

// GetUser возвращает профиль пользователя.
func (s *Service) GetUser(ctx context.Context, callerID, targetID uuid.UUID) (*models.User, error) {
	const op = "service.users.GetUser"

	if err := s.authorizeUser(ctx, callerID, targetID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.userByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateUser частично обновляет профиль: full_name и/или пароль (с повторной
// валидацией и хэшированием).
func (s *Service) UpdateUser(ctx context.Context, callerID, targetID uuid.UUID, upd models.UserUpdate) (*models.User, error) {
	const op = "service.users.UpdateUser"

	if err := s.authorizeUser(ctx, callerID, targetID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validation.UserUpdate(upd); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.userByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.FullName != nil {
		user.FullName = *upd.FullName
	}

	if upd.Password != nil {
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = s.now().UTC()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	attrs := []any{
		slog.String("user_id", targetID.String()),
		slog.Bool("password_changed", upd.Password != nil),
	}
	if upd.Password != nil {
		attrs = append(attrs, slog.String("password", redact.Password()))
	}
	log.From(ctx).Info("user_updated", attrs...)

	return user, nil
}

// DeleteUser удаляет пользователя вместе с его скриптами.
func (s *Service) DeleteUser(ctx context.Context, callerID, targetID uuid.UUID) error {
	const op = "service.users.DeleteUser"

	if err := s.authorizeUser(ctx, callerID, targetID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.DeleteUser(ctx, targetID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_deleted", slog.String("user_id", targetID.String()))

	return nil
}
