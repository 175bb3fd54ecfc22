// handlers — HTTP-обработчики robot-helper: разбор запроса, вызов сервиса,
// сериализация ответа. Ошибки пишутся только через apierrors.WriteError.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/http/middleware"
	"github.com/pribylovaa/robot-helper/internal/models"
	"github.com/pribylovaa/robot-helper/internal/service"
	"github.com/pribylovaa/robot-helper/internal/validation"
)

// maxBodyBytes — предел размера тела запроса.
const maxBodyBytes = 1 << 20

// Service — операции сервисного слоя, доступные по HTTP.
type Service interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error)
	RefreshTokens(ctx context.Context, refresh string) (*models.TokenPair, error)
	Logout(ctx context.Context, access, refresh string) error

	GetUser(ctx context.Context, callerID, targetID uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, callerID, targetID uuid.UUID, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, callerID, targetID uuid.UUID) error

	CreateScript(ctx context.Context, ownerID uuid.UUID, in models.ScriptInput) (*models.Script, error)
	ListScripts(ctx context.Context, ownerID uuid.UUID) ([]*models.Script, error)
	GetScript(ctx context.Context, ownerID, id uuid.UUID) (*models.Script, error)
	UpdateScript(ctx context.Context, ownerID, id uuid.UUID, upd models.ScriptUpdate) (*models.Script, error)
	DeleteScript(ctx context.Context, ownerID, id uuid.UUID) error

	SendMessage(ctx context.Context, userID uuid.UUID, msg models.Message) (*models.DeliveryResult, error)
}

var _ Service = (*service.Service)(nil)

// Handlers агрегирует зависимости обработчиков.
type Handlers struct {
	svc Service
}

func New(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: неизвестные поля и мусор после
// объекта запрещены, размер тела ограничен.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return malformed(err)
	}

	if dec.More() {
		return &validation.Error{Field: "body", Reason: "must contain a single JSON object"}
	}

	return nil
}

// decodeOptional — как decodeStrict, но пустое тело допустимо.
func decodeOptional(w http.ResponseWriter, r *http.Request, value any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return malformed(err)
	}

	return nil
}

func malformed(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &validation.Error{Field: "body", Reason: "request body is too large"}
	}

	return &validation.Error{Field: "body", Reason: "malformed JSON: " + err.Error()}
}

// pathID разбирает UUID из параметра пути.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, &validation.Error{Field: name, Reason: "must be a valid UUID"}
	}

	return id, nil
}

// callerID — ID аутентифицированного пользователя (кладёт middleware.RequireAuth).
func callerID(r *http.Request) (uuid.UUID, error) {
	uid, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		return uuid.Nil, service.ErrUnauthenticated
	}

	return uid, nil
}

// Root — проверка доступности API.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "robot-helper is running"})
}
