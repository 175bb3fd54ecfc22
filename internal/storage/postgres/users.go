package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/storage"
)

// userColumns — единый порядок колонок для SELECT и scanUser.
const userColumns = `
id, username, email, full_name, password_hash, is_active, is_superuser, created_at, updated_at, last_login
`

const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.LastLogin,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

// uniqueViolation переводит нарушение уникальности в ошибку хранилища
// с указанием поля (по имени ограничения).
func uniqueViolation(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil, false
	}

	switch pgErr.ConstraintName {
	case usernameConstraint:
		return storage.ErrUsernameExists, true
	case emailConstraint:
		return storage.ErrEmailExists, true
	default:
		return storage.ErrAlreadyExists, true
	}
}

// SaveUser создает нового пользователя в БД.
// Ошибки: storage.ErrUsernameExists / storage.ErrEmailExists при конфликте уникальности.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, username, email, full_name, password_hash, is_active, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.IsActive,
		user.IsSuperuser,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if mapped, ok := uniqueViolation(err); ok {
			return fmt.Errorf("%s: %w", op, mapped)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) userBy(ctx context.Context, op, column string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	user, err := scanUser(s.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByID", "id", id)
}

// UserByUsername находит пользователя по username (без учёта регистра, CITEXT).
func (s *Storage) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByUsername", "username", username)
}

// UserByEmail находит пользователя по email (без учёта регистра, CITEXT).
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.userBy(ctx, "storage.postgres.UserByEmail", "email", email)
}

// UpdateUser сохраняет изменяемые поля профиля.
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users
		SET full_name = $2, password_hash = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, user.ID, user.FullName, user.PasswordHash, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// UpdateLastLogin проставляет last_login.
func (s *Storage) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "storage.postgres.UpdateLastLogin"

	tag, err := s.db.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteUser удаляет пользователя; скрипты удаляются каскадно.
func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteUser"

	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
