package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveSessionMetadata creates or updates the metadata row of sessionID.
// Fields left nil in update keep their stored value.
func (s *SQLiteStore) SaveSessionMetadata(ctx context.Context, sessionID string, update MetadataUpdate) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO session_meta(session_id, title, summary, tags, updated_at)
        VALUES(?, ?, ?, ?, ?)
        ON CONFLICT(session_id) DO UPDATE SET
            title=COALESCE(excluded.title, session_meta.title),
            summary=COALESCE(excluded.summary, session_meta.summary),
            tags=COALESCE(excluded.tags, session_meta.tags),
            updated_at=excluded.updated_at
    `, sessionID, update.Title, update.Summary, update.Tags, s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to save metadata for session %s: %w", sessionID, err)
	}
	return nil
}

// GetSessionMetadata returns ErrNotFound when the session has no metadata.
func (s *SQLiteStore) GetSessionMetadata(ctx context.Context, sessionID string) (*SessionMeta, error) {
	var meta SessionMeta
	var hidden sql.NullInt64
	var title, summary, tags, updated sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT session_id, hidden, title, summary, tags, updated_at FROM session_meta WHERE session_id = ?",
		sessionID).Scan(&meta.SessionID, &hidden, &title, &summary, &tags, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for session %s: %w", sessionID, err)
	}
	meta.Hidden = hidden.Int64 != 0
	meta.Title = nullableString(title)
	meta.Summary = nullableString(summary)
	meta.Tags = nullableString(tags)
	meta.UpdatedAt = parseTime(updated.String)
	return &meta, nil
}

// SetSessionHidden hides a session from listings without deleting it.
func (s *SQLiteStore) SetSessionHidden(ctx context.Context, sessionID string, hidden bool) error {
	flag := 0
	if hidden {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO session_meta(session_id, hidden, updated_at)
        VALUES(?, ?, ?)
        ON CONFLICT(session_id) DO UPDATE SET hidden=excluded.hidden, updated_at=excluded.updated_at
    `, sessionID, flag, s.timestamp())
	if err != nil {
		return fmt.Errorf("failed to set hidden for session %s: %w", sessionID, err)
	}
	return nil
}

// HiddenSessionIDs returns the set of hidden session ids.
func (s *SQLiteStore) HiddenSessionIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT session_id FROM session_meta WHERE hidden = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to query hidden sessions: %w", err)
	}
	defer rows.Close()

	hidden := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan hidden session row: %w", err)
		}
		if id != "" {
			hidden[id] = true
		}
	}
	return hidden, rows.Err()
}
