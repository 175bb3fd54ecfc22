package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/robot-helper/internal/errors"
	"github.com/pribylovaa/robot-helper/internal/models"
)

func (h *Handlers) CreateScript(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in scriptRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	script, err := h.svc.CreateScript(r.Context(), owner, models.ScriptInput{Name: in.Name, Content: in.Content})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, scriptFromModel(script))
}

// ListScripts — GET /scripts: только скрипты вызывающего, новые первыми.
func (h *Handlers) ListScripts(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	scripts, err := h.svc.ListScripts(r.Context(), owner)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]scriptResponse, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, scriptFromModel(s))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetScript(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	script, err := h.svc.GetScript(r.Context(), owner, id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scriptFromModel(script))
}

func (h *Handlers) UpdateScript(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateScriptRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	script, err := h.svc.UpdateScript(r.Context(), owner, id, models.ScriptUpdate{Name: in.Name, Content: in.Content})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, scriptFromModel(script))
}

func (h *Handlers) DeleteScript(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeleteScript(r.Context(), owner, id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
