package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assistente-fontes/course-assistant/internal/core"
	"github.com/assistente-fontes/course-assistant/internal/store"
)

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

func (h *APIHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"count": len(sessions), "sessions": sessions})
}

func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	entries, err := h.sessions.Entries(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"session_id": id, "count": len(entries), "messages": entries})
}

func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sessions.Delete(r.Context(), sessionID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": deleted})
}

func (h *APIHandler) DeleteSessionMessageHandler(w http.ResponseWriter, r *http.Request) {
	var ref core.MessageRef
	if err := decodeJSON(r, &ref); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	logID, err := h.sessions.DeleteMessage(r.Context(), sessionID(r), ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "Mensagem não encontrada.")
			return
		}
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "deleted": 1, "log_id": logID})
}

func (h *APIHandler) SummarizeSessionHandler(w http.ResponseWriter, r *http.Request) {
	text, err := h.sessions.Summarize(r.Context(), sessionID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "summary": text})
}

type metadataRequest struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
	Tags    *string `json:"tags"`
}

func (h *APIHandler) SaveSessionMetadataHandler(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	update := store.MetadataUpdate{Title: req.Title, Summary: req.Summary, Tags: req.Tags}
	if err := h.sessions.SaveMetadata(r.Context(), sessionID(r), update); err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *APIHandler) GetSessionMetadataHandler(w http.ResponseWriter, r *http.Request) {
	meta, err := h.sessions.Metadata(r.Context(), sessionID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, "Metadados não encontrados")
			return
		}
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "metadata": meta})
}

type hideRequest struct {
	Hidden *bool `json:"hidden"`
}

func (h *APIHandler) HideSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req hideRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	hidden := true
	if req.Hidden != nil {
		hidden = *req.Hidden
	}
	if err := h.sessions.Hide(r.Context(), sessionID(r), hidden); err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true, "hidden": hidden})
}

func (h *APIHandler) SessionAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Analyze(r.Context(), sessionID(r))
	if err != nil {
		serviceError(w, err)
		return
	}
	JSON(w, http.StatusOK, s)
}
