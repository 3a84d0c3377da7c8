package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/assistente-fontes/course-assistant/internal/core"
	"github.com/assistente-fontes/course-assistant/internal/summary"
)

const writeTimeout = 10 * time.Second

// inboundFrame is a client frame: a control message (type) or a question.
type inboundFrame struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type resultFrame struct {
	Type string `json:"type"`
	*core.TurnResult
}

type summaryFrame struct {
	Type    string           `json:"type"`
	Summary *summary.Summary `json:"summary"`
}

// ChatWebSocketHandler serves /ws/chat. Every connection keeps its own
// conversation and summary view.
func (h *APIHandler) ChatWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(h.allowedOrigins),
	})
	if err != nil {
		slog.Error("failed to accept websocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.pingLoop(ctx, ws)

	conn := &chatConn{h: h, ws: ws, view: summary.NewView(h.analyzer)}
	conn.readLoop(ctx)
	slog.Info("websocket chat ended", "conversation_id", conn.conversationID)
}

func (h *APIHandler) pingLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := writeFrame(ctx, ws, map[string]string{"type": "ping"}); err != nil {
				return
			}
		}
	}
}

type chatConn struct {
	h              *APIHandler
	ws             *websocket.Conn
	view           *summary.View
	conversationID string
}

func (c *chatConn) readLoop(ctx context.Context) {
	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("websocket closed by client", "conversation_id", c.conversationID)
			} else if ctx.Err() == nil {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.send(ctx, map[string]string{"type": "error", "error": "Mensagem inválida"})
			continue
		}

		switch frame.Type {
		case "ping":
			c.send(ctx, map[string]string{"type": "pong"})
		case "pong":
		case "summary":
			c.adopt(frame.ConversationID)
			c.send(ctx, summaryFrame{Type: "summary", Summary: c.view.Generate()})
		default:
			if frame.Message == "" {
				continue
			}
			c.answer(ctx, frame)
		}
	}
}

// adopt switches the connection to an existing conversation and reloads
// its summary view from the stored history.
func (c *chatConn) adopt(conversationID string) {
	if conversationID == "" || conversationID == c.conversationID {
		return
	}
	c.conversationID = conversationID
	c.view.SetHistory(core.HistoryMessages(c.h.chat.Conversations().History(conversationID)))
}

func (c *chatConn) answer(ctx context.Context, frame inboundFrame) {
	c.adopt(frame.ConversationID)
	if c.conversationID == "" {
		c.conversationID = core.NewConversationID()
	}

	c.send(ctx, map[string]string{"type": "user_message_saved", "conversation_id": c.conversationID})
	c.view.Append(summary.Message{Role: summary.RoleUser, Content: frame.Message})

	res, err := c.h.chat.Answer(ctx, c.conversationID, frame.Message, func(chunk string) error {
		return writeFrame(ctx, c.ws, map[string]string{"type": "text_chunk", "content": chunk})
	})
	if err != nil {
		slog.Error("failed to answer", "conversation_id", c.conversationID, "error", err)
		c.send(ctx, map[string]string{"type": "error", "error": "Erro ao processar sua mensagem: " + err.Error()})
		return
	}
	c.view.Append(summary.Message{Role: summary.RoleAssistant, Content: res.Content})
	c.send(ctx, resultFrame{Type: "result", TurnResult: res})
}

func (c *chatConn) send(ctx context.Context, v interface{}) {
	if err := writeFrame(ctx, c.ws, v); err != nil {
		slog.Debug("failed to send websocket frame", "error", err)
	}
}

func writeFrame(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, ws, v)
}

// originPatterns turns configured origins into host patterns.
func originPatterns(origins []string) []string {
	var patterns []string
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return patterns
}
