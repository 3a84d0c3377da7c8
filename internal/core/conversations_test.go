package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assistente-fontes/course-assistant/internal/summary"
)

func TestConversationStoreEvictsOldest(t *testing.T) {
	c := NewConversationStore(2)
	c.begin("a", "q1")
	c.begin("b", "q2")
	c.begin("a", "q3")
	c.begin("c", "q4")

	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ConversationID)
	assert.Equal(t, "c", list[1].ConversationID)
	assert.Empty(t, c.History("a"))
}

func TestConversationStoreComplete(t *testing.T) {
	c := NewConversationStore(0)
	prior := c.begin("a", "q1")
	assert.Empty(t, prior)
	assert.Equal(t, 1, c.complete("a", "r1", []string{"Continuar"}))

	prior = c.begin("a", "q2")
	require.Len(t, prior, 1)
	assert.Equal(t, HistoryItem{User: "q1", AI: "r1", QuickReplies: []string{"Continuar"}}, prior[0])

	list := c.List()
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MessageCount)
	assert.Equal(t, "q2", list[0].LastMessage.User)

	assert.Zero(t, c.complete("missing", "r", nil))
}

func TestHistoryMessages(t *testing.T) {
	c := NewConversationStore(0)
	c.begin("a", "Como cobrar?")
	c.complete("a", "Defina o preço.", nil)
	c.begin("a", "E depois?")

	msgs := HistoryMessages(c.History("a"))
	assert.Equal(t, []summary.Message{
		{Role: summary.RoleUser, Content: "Como cobrar?"},
		{Role: summary.RoleAssistant, Content: "Defina o preço."},
		{Role: summary.RoleUser, Content: "E depois?"},
	}, msgs)
	assert.Empty(t, HistoryMessages(nil))
}
