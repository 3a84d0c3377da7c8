package store

import "time"

// Turn is one question/answer exchange persisted in the logs table.
type Turn struct {
	ID         int64     `json:"id"`
	Username   string    `json:"usuario"`
	Question   string    `json:"pergunta"`
	Answer     string    `json:"resposta"`
	Context    string    `json:"contexto"`
	PromptType string    `json:"tipo_prompt"`
	Module     *string   `json:"modulo"` // Nullable
	Lesson     *string   `json:"aula"`   // Nullable
	CreatedAt  time.Time `json:"data"`
}

// SessionActivity aggregates the turns logged under one username.
type SessionActivity struct {
	Username     string
	UpdatedAt    time.Time
	MessageCount int
}

// SessionMeta is the user-editable metadata of a session.
type SessionMeta struct {
	SessionID string    `json:"session_id"`
	Hidden    bool      `json:"hidden"`
	Title     *string   `json:"title"`
	Summary   *string   `json:"summary"`
	Tags      *string   `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MetadataUpdate carries the fields to change; nil fields keep their
// stored value.
type MetadataUpdate struct {
	Title   *string
	Summary *string
	Tags    *string
}

type DataChunk struct {
	ID            int64     `json:"id"`
	Content       string    `json:"content"`
	Embedding     []float32 `json:"-"` // Don't marshal to JSON response, internal
	EmbeddingJSON string    `json:"-"` // Store as JSON string for DB
}
