package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const turnColumns = "id, usuario, pergunta, resposta, contexto, tipo_prompt, modulo, aula, data"

// RecordTurn appends a question/answer exchange and fills in its ID and
// timestamp.
func (s *SQLiteStore) RecordTurn(ctx context.Context, turn *Turn) error {
	stamp := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO logs (usuario, pergunta, resposta, contexto, tipo_prompt, modulo, aula, data) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		turn.Username, turn.Question, turn.Answer, turn.Context, turn.PromptType, turn.Module, turn.Lesson, stamp)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	turn.ID, _ = res.LastInsertId()
	turn.CreatedAt = parseTime(stamp)
	return nil
}

// ListSessionActivity groups turns by username, most recent first.
func (s *SQLiteStore) ListSessionActivity(ctx context.Context) ([]SessionActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT usuario, MAX(data) AS updated_at, COUNT(*) AS message_count
        FROM logs
        WHERE usuario IS NOT NULL AND usuario != ''
        GROUP BY usuario
        ORDER BY updated_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query session activity: %w", err)
	}
	defer rows.Close()

	var out []SessionActivity
	for rows.Next() {
		var a SessionActivity
		var updated sql.NullString
		if err := rows.Scan(&a.Username, &updated, &a.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session activity row: %w", err)
		}
		a.UpdatedAt = parseTime(updated.String)
		out = append(out, a)
	}
	return out, rows.Err()
}

// TurnsByUsernames returns the turns logged under any of usernames in
// insertion order.
func (s *SQLiteStore) TurnsByUsernames(ctx context.Context, usernames []string) ([]Turn, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	query := "SELECT " + turnColumns + " FROM logs WHERE usuario IN (" + placeholders(len(usernames)) + ") ORDER BY id ASC"
	return s.queryTurns(ctx, query, stringArgs(usernames)...)
}

// AllTurns returns every logged turn, newest first.
func (s *SQLiteStore) AllTurns(ctx context.Context) ([]Turn, error) {
	return s.queryTurns(ctx, "SELECT "+turnColumns+" FROM logs ORDER BY id DESC")
}

// DeleteTurnsByUsernames removes every turn of a session.
func (s *SQLiteStore) DeleteTurnsByUsernames(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM logs WHERE usuario IN ("+placeholders(len(usernames))+")", stringArgs(usernames)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete turns: %w", err)
	}
	return res.RowsAffected()
}

// DeleteTurn removes one turn, provided it belongs to one of usernames.
func (s *SQLiteStore) DeleteTurn(ctx context.Context, id int64, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	args := append([]any{id}, stringArgs(usernames)...)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM logs WHERE id = ? AND usuario IN ("+placeholders(len(usernames))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete turn %d: %w", id, err)
	}
	return res.RowsAffected()
}

// TurnIDAtOffset returns the ID of the offset-th turn (0-based) of a session.
func (s *SQLiteStore) TurnIDAtOffset(ctx context.Context, usernames []string, offset int) (int64, error) {
	if len(usernames) == 0 || offset < 0 {
		return 0, ErrNotFound
	}
	args := append(stringArgs(usernames), offset)
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM logs WHERE usuario IN ("+placeholders(len(usernames))+") ORDER BY id ASC LIMIT 1 OFFSET ?",
		args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find turn at offset %d: %w", offset, err)
	}
	return id, nil
}

func (s *SQLiteStore) queryTurns(ctx context.Context, query string, args ...any) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var username, question, answer, ragContext, promptType, module, lesson, created sql.NullString
		if err := rows.Scan(&t.ID, &username, &question, &answer, &ragContext, &promptType, &module, &lesson, &created); err != nil {
			return nil, fmt.Errorf("failed to scan turn row: %w", err)
		}
		t.Username = username.String
		t.Question = question.String
		t.Answer = answer.String
		t.Context = ragContext.String
		t.PromptType = promptType.String
		t.Module = nullableString(module)
		t.Lesson = nullableString(lesson)
		t.CreatedAt = parseTime(created.String)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
