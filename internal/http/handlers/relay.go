package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/robot-helper/internal/errors"
)

// SendMessage — POST /send_message. Ошибка апстрима не является ошибкой
// API: ответ 200 с заполненными status_code/error.
func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in sendMessageRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.SendMessage(r.Context(), caller, in.toModel())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deliveryFromModel(res))
}
