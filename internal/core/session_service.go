package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/assistente-fontes/course-assistant/internal/store"
	"github.com/assistente-fontes/course-assistant/internal/summary"
)

const (
	wsUsernamePrefix = "ws_"
	messageIDPrefix  = "log:"
)

var (
	ErrInvalidSessionID     = errors.New("invalid session id")
	ErrInvalidLineIndex     = errors.New("invalid line index")
	ErrMessageNotIdentified = errors.New("message could not be identified")
)

// SessionStore is the persistence needed to browse and curate sessions.
type SessionStore interface {
	ListSessionActivity(ctx context.Context) ([]store.SessionActivity, error)
	TurnsByUsernames(ctx context.Context, usernames []string) ([]store.Turn, error)
	DeleteTurnsByUsernames(ctx context.Context, usernames []string) (int64, error)
	DeleteTurn(ctx context.Context, id int64, usernames []string) (int64, error)
	TurnIDAtOffset(ctx context.Context, usernames []string, offset int) (int64, error)
	SaveSessionMetadata(ctx context.Context, sessionID string, update store.MetadataUpdate) error
	GetSessionMetadata(ctx context.Context, sessionID string) (*store.SessionMeta, error)
	SetSessionHidden(ctx context.Context, sessionID string, hidden bool) error
	HiddenSessionIDs(ctx context.Context) (map[string]bool, error)
}

type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	FileName     string    `json:"file_name"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Model        string    `json:"model"`
	Title        *string   `json:"title"`
	Summary      *string   `json:"summary"`
}

// SessionEntry is one line of a session transcript. The first entry is a
// "meta" line; the rest alternate user and assistant messages.
type SessionEntry struct {
	Type      string       `json:"type,omitempty"`
	ID        string       `json:"id,omitempty"`
	Role      summary.Role `json:"role,omitempty"`
	Content   string       `json:"content,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Message   *EntryMeta   `json:"message,omitempty"`
}

type EntryMeta struct {
	Model string `json:"model"`
}

// MessageRef identifies a turn either by its message id ("log:N") or by the
// 1-based position of one of its entries after the meta line.
type MessageRef struct {
	MessageID string `json:"message_id"`
	LineIndex *int   `json:"line_index"`
}

type SessionService struct {
	store    SessionStore
	analyzer *summary.Analyzer
	summary  *SummaryService
	model    string
	now      func() time.Time
}

func NewSessionService(st SessionStore, analyzer *summary.Analyzer, summaries *SummaryService) *SessionService {
	return &SessionService{
		store:    st,
		analyzer: analyzer,
		summary:  summaries,
		model:    defaultChatModelName,
		now:      time.Now,
	}
}

// SessionUsernames maps a session id to the log usernames it covers.
func SessionUsernames(sessionID string) []string {
	if sessionID == "" {
		return nil
	}
	return []string{sessionID, wsUsernamePrefix + sessionID}
}

// NormalizeSessionID strips the websocket username prefix.
func NormalizeSessionID(username string) string {
	return strings.TrimPrefix(username, wsUsernamePrefix)
}

func usernamesFor(sessionID string) ([]string, error) {
	usernames := SessionUsernames(strings.TrimSpace(sessionID))
	if usernames == nil {
		return nil, ErrInvalidSessionID
	}
	return usernames, nil
}

// List returns visible sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context) ([]SessionInfo, error) {
	activity, err := s.store.ListSessionActivity(ctx)
	if err != nil {
		return nil, err
	}
	hidden, err := s.store.HiddenSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*SessionInfo)
	var order []string
	for _, a := range activity {
		sid := NormalizeSessionID(a.Username)
		if sid == "" || hidden[sid] {
			continue
		}
		info, ok := byID[sid]
		if !ok {
			info = &SessionInfo{SessionID: sid, FileName: sid, Model: s.model}
			byID[sid] = info
			order = append(order, sid)
		}
		info.MessageCount += a.MessageCount
		if a.UpdatedAt.After(info.UpdatedAt) {
			info.UpdatedAt = a.UpdatedAt
		}
	}

	sessions := make([]SessionInfo, 0, len(order))
	for _, sid := range order {
		info := byID[sid]
		meta, err := s.store.GetSessionMetadata(ctx, sid)
		switch {
		case err == nil:
			info.Title, info.Summary = meta.Title, meta.Summary
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
		sessions = append(sessions, *info)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Entries returns the session transcript: a meta line followed by one user
// and one assistant entry per logged turn.
func (s *SessionService) Entries(ctx context.Context, sessionID string) ([]SessionEntry, error) {
	usernames, err := usernamesFor(sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.store.TurnsByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}

	metaTime := s.now().UTC()
	if len(turns) > 0 {
		metaTime = turns[0].CreatedAt
	}
	entries := []SessionEntry{{Type: "meta", Timestamp: metaTime, Message: &EntryMeta{Model: s.model}}}
	for _, t := range turns {
		id := messageIDPrefix + strconv.FormatInt(t.ID, 10)
		if t.Question != "" {
			entries = append(entries, SessionEntry{ID: id, Role: summary.RoleUser, Content: t.Question, Timestamp: t.CreatedAt})
		}
		if t.Answer != "" {
			entries = append(entries, SessionEntry{ID: id, Role: summary.RoleAssistant, Content: t.Answer, Timestamp: t.CreatedAt})
		}
	}
	return entries, nil
}

// Messages returns the session as analyzer input.
func (s *SessionService) Messages(ctx context.Context, sessionID string) ([]summary.Message, error) {
	usernames, err := usernamesFor(sessionID)
	if err != nil {
		return nil, err
	}
	turns, err := s.store.TurnsByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}
	return TurnsToMessages(turns), nil
}

// TurnsToMessages flattens turns into user/assistant messages, dropping
// empty sides.
func TurnsToMessages(turns []store.Turn) []summary.Message {
	msgs := make([]summary.Message, 0, 2*len(turns))
	for _, t := range turns {
		if t.Question != "" {
			msgs = append(msgs, summary.Message{Role: summary.RoleUser, Content: t.Question})
		}
		if t.Answer != "" {
			msgs = append(msgs, summary.Message{Role: summary.RoleAssistant, Content: t.Answer})
		}
	}
	return msgs
}

// Delete removes every logged turn of a session.
func (s *SessionService) Delete(ctx context.Context, sessionID string) (int64, error) {
	usernames, err := usernamesFor(sessionID)
	if err != nil {
		return 0, err
	}
	return s.store.DeleteTurnsByUsernames(ctx, usernames)
}

// DeleteMessage removes the turn ref points at and returns its log id.
// A turn holds both the question and the answer, so both go together.
func (s *SessionService) DeleteMessage(ctx context.Context, sessionID string, ref MessageRef) (int64, error) {
	usernames, err := usernamesFor(sessionID)
	if err != nil {
		return 0, err
	}

	logID, ok := parseMessageID(ref.MessageID)
	if !ok && ref.LineIndex != nil {
		if *ref.LineIndex <= 0 {
			return 0, ErrInvalidLineIndex
		}
		offset := (*ref.LineIndex - 1) / 2
		id, err := s.store.TurnIDAtOffset(ctx, usernames, offset)
		switch {
		case err == nil:
			logID, ok = id, true
		case !errors.Is(err, store.ErrNotFound):
			return 0, err
		}
	}
	if !ok {
		return 0, ErrMessageNotIdentified
	}

	deleted, err := s.store.DeleteTurn(ctx, logID, usernames)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return logID, store.ErrNotFound
	}
	return logID, nil
}

func parseMessageID(raw string) (int64, bool) {
	mid := strings.TrimSpace(raw)
	if mid == "" {
		return 0, false
	}
	mid = strings.TrimPrefix(mid, messageIDPrefix)
	id, err := strconv.ParseInt(mid, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Summarize generates a summary of the session and stores it in its
// metadata.
func (s *SessionService) Summarize(ctx context.Context, sessionID string) (string, error) {
	msgs, err := s.Messages(ctx, sessionID)
	if err != nil {
		return "", err
	}
	text, err := s.summary.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveSessionMetadata(ctx, sessionID, store.MetadataUpdate{Summary: &text}); err != nil {
		return "", fmt.Errorf("failed to save session summary: %w", err)
	}
	slog.Debug("session summarized", "session_id", sessionID, "length", len(text))
	return text, nil
}

// Analyze runs the conversation analyzer over the stored session.
func (s *SessionService) Analyze(ctx context.Context, sessionID string) (*summary.Summary, error) {
	msgs, err := s.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(msgs), nil
}

func (s *SessionService) Metadata(ctx context.Context, sessionID string) (*store.SessionMeta, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSessionID
	}
	return s.store.GetSessionMetadata(ctx, sessionID)
}

func (s *SessionService) SaveMetadata(ctx context.Context, sessionID string, update store.MetadataUpdate) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	return s.store.SaveSessionMetadata(ctx, sessionID, update)
}

// Hide removes a session from List without deleting its turns.
func (s *SessionService) Hide(ctx context.Context, sessionID string, hidden bool) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	return s.store.SetSessionHidden(ctx, sessionID, hidden)
}
