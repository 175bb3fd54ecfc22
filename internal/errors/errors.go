// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает ошибку сервисного слоя, на выход даёт:
//   - корректный HTTP-статус;
//   - стабильный машиночитаемый code;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по ошибкам: sentinel-ошибки пакетов service и validation.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/robot-helper/internal/service"
	"github.com/pribylovaa/robot-helper/internal/validation"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrRateLimited — превышен лимит запросов (выставляется middleware.RateLimit).
var ErrRateLimited = errors.New("too many requests")

// APIError — единый формат для клиентов.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func resp(code, msg string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: msg}}
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal, чтобы не
//     маскировать баг ответом "200 OK" с телом ошибки;
//   - *validation.Error — 400, message = причина (поле + правило);
//   - известные sentinel-ошибки — по таблице ниже;
//   - прочее — 500/internal без деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, resp("internal", "internal error")
	}

	var ve *validation.Error
	if errors.As(err, &ve) {
		return http.StatusBadRequest, resp("invalid_argument", ve.Error())
	}

	switch {
	case errors.Is(err, validation.ErrValidation):
		return http.StatusBadRequest, resp("invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusBadRequest, resp("already_exists", service.ErrUsernameTaken.Error())
	case errors.Is(err, service.ErrEmailTaken):
		return http.StatusBadRequest, resp("already_exists", service.ErrEmailTaken.Error())
	case errors.Is(err, service.ErrDuplicateIdentity):
		return http.StatusBadRequest, resp("already_exists", "already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, resp("invalid_credentials", "incorrect email or password")
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, resp("invalid_token", "invalid or expired token")
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, resp("unauthenticated", "not authenticated")
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, resp("permission_denied", "permission denied")
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, resp("not_found", "user not found")
	case errors.Is(err, service.ErrScriptNotFound):
		return http.StatusNotFound, resp("not_found", "script not found")
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, resp("resource_exhausted", "too many requests")
	case errors.Is(err, service.ErrRevocationUnavailable),
		errors.Is(err, service.ErrRelayUnavailable):
		return http.StatusNotImplemented, resp("unimplemented", "not configured on this server")
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, resp("canceled", "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, resp("deadline_exceeded", "deadline exceeded")
	default:
		return http.StatusInternalServerError, resp("internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров и middleware.
// Пишет статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		body.Error.RequestID = rid
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
