// storage задаёт контракт хранилища пользователей и скриптов.
// Каждый метод — одна атомарная операция над БД.
package storage

//go:generate mockgen -source=storage.go -destination=../../mocks/mock_storage.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/скрипт).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUsernameExists — нарушен уникальный индекс по username.
	ErrUsernameExists = fmt.Errorf("username: %w", ErrAlreadyExists)
	// ErrEmailExists — нарушен уникальный индекс по email.
	ErrEmailExists = fmt.Errorf("email: %w", ErrAlreadyExists)
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByUsername находит пользователя по username.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateUser сохраняет full_name, password_hash и updated_at.
	UpdateUser(ctx context.Context, user *models.User) error
	// UpdateLastLogin проставляет момент последнего входа.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	// DeleteUser удаляет пользователя вместе с его скриптами.
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// ScriptStorage выполняет операции над скриптами.
type ScriptStorage interface {
	// SaveScript создаёт скрипт.
	SaveScript(ctx context.Context, script *models.Script) error
	// ScriptByID находит скрипт по ID.
	ScriptByID(ctx context.Context, id uuid.UUID) (*models.Script, error)
	// ScriptsByOwner возвращает скрипты пользователя (новые первыми).
	ScriptsByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Script, error)
	// UpdateScript сохраняет name, content и updated_at.
	UpdateScript(ctx context.Context, script *models.Script) error
	// DeleteScript удаляет скрипт.
	DeleteScript(ctx context.Context, id uuid.UUID) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	ScriptStorage
	Close()
}
