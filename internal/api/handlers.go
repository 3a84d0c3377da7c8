package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assistente-fontes/course-assistant/internal/auth"
	"github.com/assistente-fontes/course-assistant/internal/core"
	"github.com/assistente-fontes/course-assistant/internal/store"
	"github.com/assistente-fontes/course-assistant/internal/summary"
)

// LogSource provides the turns exported by /logs.
type LogSource interface {
	AllTurns(ctx context.Context) ([]store.Turn, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies wires the services behind the API.
type Dependencies struct {
	Analyzer       *summary.Analyzer
	Chat           *core.ChatService
	Sessions       *core.SessionService
	Summaries      *core.SummaryService
	Logs           LogSource
	Health         HealthChecker
	Tokens         *auth.TokenIssuer
	Users          auth.Credentials
	AllowedOrigins []string
}

type APIHandler struct {
	analyzer       *summary.Analyzer
	chat           *core.ChatService
	sessions       *core.SessionService
	summaries      *core.SummaryService
	logs           LogSource
	health         HealthChecker
	tokens         *auth.TokenIssuer
	users          auth.Credentials
	allowedOrigins []string
	pingInterval   time.Duration
	now            func() time.Time
}

func NewAPIHandler(deps Dependencies) *APIHandler {
	analyzer := deps.Analyzer
	if analyzer == nil {
		analyzer = summary.NewDefaultAnalyzer()
	}
	return &APIHandler{
		analyzer:       analyzer,
		chat:           deps.Chat,
		sessions:       deps.Sessions,
		summaries:      deps.Summaries,
		logs:           deps.Logs,
		health:         deps.Health,
		tokens:         deps.Tokens,
		users:          deps.Users,
		allowedOrigins: deps.AllowedOrigins,
		pingInterval:   30 * time.Second,
		now:            time.Now,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		Error(w, http.StatusBadRequest, "Usuário e senha são obrigatórios")
		return
	}
	if !h.users.Authenticate(req.Username, req.Password) {
		Error(w, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}

	token, err := h.tokens.GenerateJWT(req.Username)
	if err != nil {
		slog.Error("failed to generate token", "username", req.Username, "error", err)
		Error(w, http.StatusInternalServerError, "Falha ao gerar token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokens.TTL().Seconds()),
	})
	JSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type conversationRequest struct {
	Messages []summary.Message `json:"messages"`
}

func (h *APIHandler) readConversation(w http.ResponseWriter, r *http.Request) ([]summary.Message, bool) {
	var req conversationRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	return req.Messages, true
}

// AnalyzeConversationHandler returns the study summary of a posted
// conversation.
func (h *APIHandler) AnalyzeConversationHandler(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.readConversation(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, h.analyzer.Analyze(msgs))
}

// ExportConversationHandler returns the plain-text report of a posted
// conversation as a download.
func (h *APIHandler) ExportConversationHandler(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.readConversation(w, r)
	if !ok {
		return
	}
	now := h.now()
	var buf bytes.Buffer
	if err := summary.WriteText(&buf, h.analyzer.Analyze(msgs), now); err != nil {
		if errors.Is(err, summary.ErrNothingToExport) {
			Error(w, http.StatusBadRequest, "Nenhum resumo para exportar")
			return
		}
		serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", summary.ExportFilename(now)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("failed to write export", "error", err)
	}
}

// StreamSummaryHandler streams an LLM summary of a posted conversation as
// "data:" lines, ending with [DONE] or [ERROR].
func (h *APIHandler) StreamSummaryHandler(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.readConversation(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := h.summaries.Stream(r.Context(), msgs, func(chunk string) error {
		if err := writeData(w, chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		slog.Error("summary stream failed", "error", err)
		_ = writeData(w, "[ERROR]"+err.Error())
	} else {
		_ = writeData(w, "[DONE]")
	}
	flusher.Flush()
}

// writeData writes one event; multi-line payloads become several data lines.
func writeData(w http.ResponseWriter, payload string) error {
	var b strings.Builder
	for _, line := range strings.Split(payload, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := w.Write([]byte(b.String()))
	return err
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	conversations := h.chat.Conversations().List()
	JSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"total":         len(conversations),
	})
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	history := h.chat.Conversations().History(conversationID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        history,
		"count":           len(history),
	})
}
