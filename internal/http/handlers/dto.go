package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/robot-helper/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (r registerRequest) toModel() models.RegisterInput {
	return models.RegisterInput{
		Username: r.Username,
		Password: r.Password,
		Email:    r.Email,
		FullName: r.FullName,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// tokenResponse — ответ логина и обновления токенов.
type tokenResponse struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	TokenType       string    `json:"token_type"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
	Message         string    `json:"message,omitempty"`
}

func tokenFromModel(p *models.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:     p.AccessToken,
		RefreshToken:    p.RefreshToken,
		TokenType:       "bearer",
		AccessExpiresAt: p.AccessExpiresAt,
	}
}

// userResponse — публичное представление пользователя; хэш пароля не отдаётся.
type userResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsSuperuser bool       `json:"is_superuser"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLogin   *time.Time `json:"last_login"`
}

func userFromModel(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLogin:   u.LastLogin,
	}
}

type updateUserRequest struct {
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

type scriptRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type updateScriptRequest struct {
	Name    *string `json:"name"`
	Content *string `json:"content"`
}

type scriptResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func scriptFromModel(s *models.Script) scriptResponse {
	return scriptResponse{
		ID:        s.ID,
		Name:      s.Name,
		Content:   s.Content,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

type sendMessageRequest struct {
	To       string `json:"to"`
	Text     string `json:"text"`
	APIURL   string `json:"api_url"`
	APIToken string `json:"api_token,omitempty"`
}

func (r sendMessageRequest) toModel() models.Message {
	return models.Message{To: r.To, Text: r.Text, APIURL: r.APIURL, APIToken: r.APIToken}
}

// sendMessageResponse — null в status_code/error/data означает «нет значения».
type sendMessageResponse struct {
	StatusCode *int           `json:"status_code"`
	Error      *string        `json:"error"`
	Data       map[string]any `json:"data"`
}

func deliveryFromModel(d *models.DeliveryResult) sendMessageResponse {
	var out sendMessageResponse
	if d.StatusCode != 0 {
		code := d.StatusCode
		out.StatusCode = &code
	}
	if d.Error != "" {
		msg := d.Error
		out.Error = &msg
	}
	out.Data = d.Data
	return out
}
