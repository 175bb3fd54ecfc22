package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/robot-helper/internal/errors"
	"github.com/pribylovaa/robot-helper/internal/models"
)

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	target, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.GetUser(r.Context(), caller, target)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

// UpdateUser — PATCH /users/{id}: меняет full_name и/или пароль.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	target, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateUserRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), caller, target, models.UserUpdate{
		FullName: in.FullName,
		Password: in.Password,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	target, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteUser(r.Context(), caller, target); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
