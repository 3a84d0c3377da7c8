package core

import (
	"sync"

	"github.com/google/uuid"

	"github.com/assistente-fontes/course-assistant/internal/summary"
)

// MaxConversations bounds the in-memory histories; the oldest conversation
// is evicted first.
const MaxConversations = 1000

type HistoryItem struct {
	User         string   `json:"user"`
	AI           string   `json:"ai"`
	QuickReplies []string `json:"quick_replies,omitempty"`
}

type ConversationSummary struct {
	ConversationID string       `json:"conversation_id"`
	MessageCount   int          `json:"message_count"`
	LastMessage    *HistoryItem `json:"last_message"`
}

// ConversationStore keeps live websocket conversations in memory.
type ConversationStore struct {
	mu        sync.Mutex
	max       int
	order     []string
	histories map[string][]HistoryItem
}

func NewConversationStore(max int) *ConversationStore {
	if max <= 0 {
		max = MaxConversations
	}
	return &ConversationStore{max: max, histories: make(map[string][]HistoryItem)}
}

// NewConversationID returns a fresh conversation id.
func NewConversationID() string {
	return "conv_" + uuid.NewString()
}

// begin appends a new turn for question and returns the prior history.
func (c *ConversationStore) begin(id, question string) []HistoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	history, ok := c.histories[id]
	if !ok {
		c.order = append(c.order, id)
		if len(c.order) > c.max {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.histories, oldest)
		}
	}
	prior := make([]HistoryItem, len(history))
	copy(prior, history)
	c.histories[id] = append(history, HistoryItem{User: question})
	return prior
}

// complete fills in the answer of the last turn and returns the turn count.
func (c *ConversationStore) complete(id, answer string, quickReplies []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := c.histories[id]
	if len(history) == 0 {
		return 0
	}
	last := &history[len(history)-1]
	last.AI = answer
	last.QuickReplies = quickReplies
	return len(history)
}

// History returns a copy of a conversation's turns.
func (c *ConversationStore) History(id string) []HistoryItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := c.histories[id]
	out := make([]HistoryItem, len(history))
	copy(out, history)
	return out
}

// List describes every live conversation in creation order.
func (c *ConversationStore) List() []ConversationSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ConversationSummary, 0, len(c.order))
	for _, id := range c.order {
		history := c.histories[id]
		cs := ConversationSummary{ConversationID: id, MessageCount: len(history)}
		if len(history) > 0 {
			last := history[len(history)-1]
			cs.LastMessage = &last
		}
		out = append(out, cs)
	}
	return out
}

// HistoryMessages flattens turns into analyzer messages, skipping empty
// sides such as a question still waiting for its answer.
func HistoryMessages(history []HistoryItem) []summary.Message {
	msgs := make([]summary.Message, 0, 2*len(history))
	for _, item := range history {
		if item.User != "" {
			msgs = append(msgs, summary.Message{Role: summary.RoleUser, Content: item.User})
		}
		if item.AI != "" {
			msgs = append(msgs, summary.Message{Role: summary.RoleAssistant, Content: item.AI})
		}
	}
	return msgs
}
