package api

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

var logColumns = []string{"id", "usuario", "pergunta", "resposta", "contexto", "tipo_prompt", "modulo", "aula", "data"}

// ExportLogsHandler streams every logged turn as a CSV attachment, newest
// first.
func (h *APIHandler) ExportLogsHandler(w http.ResponseWriter, r *http.Request) {
	turns, err := h.logs.AllTurns(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=logs.csv")
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if err := cw.Write(logColumns); err != nil {
		slog.Debug("failed to write csv header", "error", err)
		return
	}
	for _, t := range turns {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.Username,
			t.Question,
			t.Answer,
			t.Context,
			t.PromptType,
			deref(t.Module),
			deref(t.Lesson),
			t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			slog.Debug("failed to write csv row", "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Debug("failed to flush csv", "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
