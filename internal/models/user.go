package models

import (
	"time"

	"github.com/google/uuid"
)

// User — учётная запись (identity).
//
// PasswordHash — непрозрачный bcrypt-хэш; поле не покидает сервисный слой
// и не сериализуется в ответы (см. handlers.userResponse).
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// LastLogin — nil, пока пользователь ни разу не входил.
	LastLogin *time.Time
}

// RegisterInput — данные регистрации. Пароль живёт только в рамках запроса.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	FullName string
}

// UserUpdate — частичное обновление профиля: nil означает «не менять».
type UserUpdate struct {
	FullName *string
	Password *string
}
