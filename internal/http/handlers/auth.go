package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/robot-helper/internal/errors"
	"github.com/pribylovaa/robot-helper/internal/http/middleware"
)

// Register — POST /register, ответ 201 с профилем нового пользователя.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.Register(r.Context(), in.toModel())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userFromModel(user))
}

// Login — POST /login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, _, err := h.svc.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := tokenFromModel(pair)
	out.Message = "login successful"
	writeJSON(w, http.StatusOK, out)
}

// Refresh — POST /refresh. Refresh-токен берётся из тела или из ?refresh_token.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeOptional(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if in.RefreshToken == "" {
		in.RefreshToken = r.URL.Query().Get("refresh_token")
	}

	pair, err := h.svc.RefreshTokens(r.Context(), in.RefreshToken)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenFromModel(pair))
}

// Logout — POST /logout: отзывает текущий access и, если передан, refresh.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeOptional(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.Logout(r.Context(), middleware.BearerToken(r), in.RefreshToken); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
