// Package api exposes the course assistant over HTTP and websockets.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/assistente-fontes/course-assistant/internal/core"
	"github.com/assistente-fontes/course-assistant/internal/store"
)

const maxBodyBytes = 1 << 20

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]interface{}{"success": false, "error": message})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// serviceError maps service errors to HTTP responses.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidSessionID):
		Error(w, http.StatusBadRequest, "session_id inválido")
	case errors.Is(err, core.ErrInvalidLineIndex):
		Error(w, http.StatusBadRequest, "line_index inválido")
	case errors.Is(err, core.ErrMessageNotIdentified):
		Error(w, http.StatusBadRequest, "Não foi possível identificar a mensagem.")
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "Não encontrado.")
	default:
		slog.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, "Erro interno do servidor")
	}
}
