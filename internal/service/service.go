// service содержит бизнес-логику robot-helper:
// регистрацию/аутентификацию, выпуск и проверку токенов, профили,
// скрипты пользователей и отправку сообщений во внешние API.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасном storage.Storage.
//   - Ошибки оборачиваются как "op: %w" и далее маппятся транспортом
//     на HTTP-статусы (см. internal/errors).
//   - Denylist и Messenger опциональны: без них Logout и SendMessage
//     возвращают ErrRevocationUnavailable / ErrRelayUnavailable.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/robot-helper/internal/cache"
	"github.com/pribylovaa/robot-helper/internal/config"
	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/password"
	"github.com/pribylovaa/robot-helper/internal/storage"
	"github.com/pribylovaa/robot-helper/internal/token"
)

var (
	// ErrInvalidCredentials — неизвестный email, неверный пароль или
	// неактивная учётная запись (различие наружу не раскрывается). HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен подделан, просрочен, не того типа или отозван. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated — токен не предъявлен. HTTP 401.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrForbidden — операция над чужим профилем без прав суперпользователя. HTTP 403.
	ErrForbidden = errors.New("permission denied")

	// ErrDuplicateIdentity — общий маркер конфликта уникальности. HTTP 400.
	ErrDuplicateIdentity = errors.New("identity already exists")
	// ErrUsernameTaken — username занят.
	ErrUsernameTaken = fmt.Errorf("user with this username already exists: %w", ErrDuplicateIdentity)
	// ErrEmailTaken — email занят.
	ErrEmailTaken = fmt.Errorf("user with this email already exists: %w", ErrDuplicateIdentity)

	// ErrUserNotFound — пользователь не найден. HTTP 404.
	ErrUserNotFound = errors.New("user not found")
	// ErrScriptNotFound — скрипт не найден или принадлежит другому пользователю. HTTP 404.
	ErrScriptNotFound = errors.New("script not found")

	// ErrRevocationUnavailable — отзыв токенов не сконфигурирован (нет Redis). HTTP 501.
	ErrRevocationUnavailable = errors.New("token revocation is not configured")
	// ErrRelayUnavailable — отправка сообщений не сконфигурирована. HTTP 501.
	ErrRelayUnavailable = errors.New("message relay is not configured")
)

// Messenger — контракт отправки сообщений во внешний API.
type Messenger interface {
	Send(ctx context.Context, msg models.Message) (*models.DeliveryResult, error)
}

// Service описывает бизнес-логику robot-helper.
type Service struct {
	storage   storage.Storage
	codec     *token.Codec
	hasher    *password.Hasher
	cfg       config.AuthConfig
	denylist  cache.Denylist // может быть nil, если Redis не сконфигурирован
	messenger Messenger      // может быть nil
	now       func() time.Time
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, codec *token.Codec, hasher *password.Hasher, cfg config.AuthConfig) *Service {
	return &Service{
		storage: st,
		codec:   codec,
		hasher:  hasher,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetDenylist устанавливает хранилище отозванных токенов (опционально).
func (s *Service) SetDenylist(d cache.Denylist) {
	s.denylist = d
}

// SetMessenger устанавливает клиент внешнего API (опционально).
func (s *Service) SetMessenger(m Messenger) {
	s.messenger = m
}

// SetClock подменяет источник времени; используйте тот же, что у token.Codec.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
