package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistente-fontes/course-assistant/internal/core"
)

type wsFrame struct {
	Type           string                 `json:"type"`
	Content        string                 `json:"content"`
	ConversationID string                 `json:"conversation_id"`
	NumTurns       int                    `json:"num_turns"`
	Error          string                 `json:"error"`
	Summary        map[string]interface{} `json:"summary"`
}

func dialChat(t *testing.T, env *testEnv) (context.Context, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return ctx, conn
}

// readUntil reads frames until one of type last arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, last string) []wsFrame {
	t.Helper()
	var frames []wsFrame
	for {
		var f wsFrame
		require.NoError(t, wsjson.Read(ctx, conn, &f))
		frames = append(frames, f)
		if f.Type == last || f.Type == "error" {
			return frames
		}
	}
}

func TestChatWebSocketAnswer(t *testing.T) {
	env := newTestEnv(t)
	ctx, conn := dialChat(t, env)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"message": "Como cobrar no módulo 3?"}))
	frames := readUntil(t, ctx, conn, "result")
	require.GreaterOrEqual(t, len(frames), 3)

	saved := frames[0]
	assert.Equal(t, "user_message_saved", saved.Type)
	assert.True(t, strings.HasPrefix(saved.ConversationID, "conv_"))

	var streamed strings.Builder
	for _, f := range frames[1 : len(frames)-1] {
		assert.Equal(t, "text_chunk", f.Type)
		streamed.WriteString(f.Content)
	}
	assert.Equal(t, "Resposta curta.", streamed.String())

	result := frames[len(frames)-1]
	assert.Equal(t, "result", result.Type)
	assert.Equal(t, saved.ConversationID, result.ConversationID)
	assert.Equal(t, 1, result.NumTurns)

	turns, err := env.store.TurnsByUsernames(ctx, core.SessionUsernames(saved.ConversationID))
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "Como cobrar no módulo 3?", turns[0].Question)

	// the connection keeps its conversation id across questions
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"message": "E depois?"}))
	frames = readUntil(t, ctx, conn, "result")
	assert.Equal(t, saved.ConversationID, frames[len(frames)-1].ConversationID)
	assert.Equal(t, 2, frames[len(frames)-1].NumTurns)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "summary"}))
	frames = readUntil(t, ctx, conn, "summary")
	summaryFrame := frames[len(frames)-1]
	require.Equal(t, "summary", summaryFrame.Type)
	assert.Contains(t, summaryFrame.Summary["topics"], "Precificação")

	rec := env.do(t, http.MethodGet, "/api/conversation/"+saved.ConversationID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func TestChatWebSocketControlFrames(t *testing.T) {
	env := newTestEnv(t)
	ctx, conn := dialChat(t, env)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "ping"}))
	frames := readUntil(t, ctx, conn, "pong")
	assert.Equal(t, "pong", frames[len(frames)-1].Type)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("not json")))
	frames = readUntil(t, ctx, conn, "error")
	assert.Equal(t, "Mensagem inválida", frames[len(frames)-1].Error)
}

func TestChatWebSocketModelFailure(t *testing.T) {
	env := newTestEnv(t)
	env.llm.err = assert.AnError
	ctx, conn := dialChat(t, env)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"message": "Oi"}))
	frames := readUntil(t, ctx, conn, "result")
	result := frames[len(frames)-1]
	require.Equal(t, "result", result.Type)
	assert.Equal(t, core.OutOfScopeMessage, result.Content)
}

func TestChatWebSocketResumesConversation(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"

	first, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(ctx, first, map[string]string{"message": "Como cobrar no módulo 3?"}))
	frames := readUntil(t, ctx, first, "result")
	conversationID := frames[len(frames)-1].ConversationID
	require.NotEmpty(t, conversationID)
	_ = first.Close(websocket.StatusNormalClosure, "")

	second, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close(websocket.StatusNormalClosure, "") })

	require.NoError(t, wsjson.Write(ctx, second, map[string]string{"type": "summary", "conversation_id": conversationID}))
	frames = readUntil(t, ctx, second, "summary")
	s := frames[len(frames)-1].Summary
	require.NotNil(t, s)
	assert.Contains(t, s["topics"], "Precificação")
	assert.Len(t, s["modules"], 1)

	require.NoError(t, wsjson.Write(ctx, second, map[string]string{"message": "E a aula 2.1?", "conversation_id": conversationID}))
	frames = readUntil(t, ctx, second, "result")
	assert.Equal(t, 2, frames[len(frames)-1].NumTurns)

	require.NoError(t, wsjson.Write(ctx, second, map[string]string{"type": "summary"}))
	frames = readUntil(t, ctx, second, "summary")
	assert.Len(t, frames[len(frames)-1].Summary["modules"], 2)
}
