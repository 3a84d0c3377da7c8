// Package summary derives a study summary (topics, course modules, insights,
// progress and next steps) from a chat conversation.
package summary

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// MentionKind tells whether a mention refers to a whole module or a lesson.
type MentionKind string

const (
	KindModule MentionKind = "module"
	KindLesson MentionKind = "lesson"
)

// ModuleMention is a reference to a course unit found in the conversation.
type ModuleMention struct {
	Number int         `json:"number"`
	Name   string      `json:"name"`
	Kind   MentionKind `json:"type"`
	Detail string      `json:"detail,omitempty"`
}

// Item is an insight or a suggestion.
type Item struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// Progress reports how much of the course the conversation touched.
type Progress struct {
	Percentage int    `json:"percentage"`
	Studied    int    `json:"modulesStudied"`
	Total      int    `json:"totalModules"`
	Text       string `json:"text"`
}

// EmptyState holds the placeholder shown for each field when there is no
// conversation yet.
type EmptyState struct {
	Overview    string `json:"overview"`
	Topics      string `json:"topics"`
	Modules     string `json:"modules"`
	Insights    string `json:"insights"`
	Progress    string `json:"progress"`
	Suggestions string `json:"suggestions"`
}

// DefaultEmptyState is used by EmptySummary.
var DefaultEmptyState = EmptyState{
	Overview:    "Nenhuma conversa iniciada ainda.",
	Topics:      "Nenhum tópico identificado.",
	Modules:     "Nenhum módulo ou aula foi mencionado.",
	Insights:    "Nenhum insight foi gerado ainda.",
	Progress:    "0% do curso concluído",
	Suggestions: "Comece uma conversa para receber sugestões personalizadas",
}

// Summary is the derived view of a conversation. It is recomputed from
// scratch on every request.
type Summary struct {
	Overview    string          `json:"overview"`
	Topics      []string        `json:"topics"`
	Modules     []ModuleMention `json:"modules"`
	Insights    []Item          `json:"insights"`
	Progress    Progress        `json:"progress"`
	Suggestions []Item          `json:"suggestions"`

	// EmptyState is set only for a conversation without messages.
	EmptyState *EmptyState `json:"emptyState,omitempty"`
}

// IsEmpty reports whether s is the placeholder summary of an empty
// conversation.
func (s *Summary) IsEmpty() bool {
	return s == nil || s.EmptyState != nil
}

// EmptySummary returns the placeholder summary for a conversation without
// messages.
func EmptySummary() *Summary {
	empty := DefaultEmptyState
	return &Summary{
		Overview: empty.Overview,
		Topics:   []string{},
		Modules:  []ModuleMention{},
		Insights: []Item{},
		Progress: Progress{
			Percentage: 0,
			Studied:    0,
			Total:      TotalModules,
			Text:       empty.Progress,
		},
		Suggestions: []Item{},
		EmptyState:  &empty,
	}
}
