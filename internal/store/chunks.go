package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// maxChunkLength bounds how many characters of adjacent paragraphs are
// merged into one chunk before embedding.
const maxChunkLength = 1200

// ErrNothingEmbedded is returned when no transcript paragraph could be
// embedded; the stored chunks are kept.
var ErrNothingEmbedded = errors.New("no transcript chunk could be embedded")

// Embedder turns a piece of text into its embedding vector.
type Embedder func(ctx context.Context, text string) ([]float32, error)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func createDataChunk(ctx context.Context, db execer, chunk *DataChunk) error {
	embeddingBytes, err := json.Marshal(chunk.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}
	chunk.EmbeddingJSON = string(embeddingBytes)

	res, err := db.ExecContext(ctx, "INSERT INTO data_chunks (content, embedding_json) VALUES (?, ?)",
		chunk.Content, chunk.EmbeddingJSON)
	if err != nil {
		return fmt.Errorf("failed to insert data_chunk: %w", err)
	}
	chunk.ID, _ = res.LastInsertId()
	return nil
}

// AllDataChunks loads every knowledge-base chunk with its embedding.
func (s *SQLiteStore) AllDataChunks(ctx context.Context) ([]DataChunk, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, content, embedding_json FROM data_chunks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query data_chunks: %w", err)
	}
	defer rows.Close()

	var chunks []DataChunk
	for rows.Next() {
		var chunk DataChunk
		var embeddingJSON *string
		if err := rows.Scan(&chunk.ID, &chunk.Content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan data_chunk row: %w", err)
		}
		if embeddingJSON == nil || *embeddingJSON == "" {
			slog.Warn("data chunk has no embedding", "chunk_id", chunk.ID)
		} else if err := json.Unmarshal([]byte(*embeddingJSON), &chunk.Embedding); err != nil {
			slog.Warn("failed to decode chunk embedding", "chunk_id", chunk.ID, "error", err)
			chunk.Embedding = nil
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// ClearDataChunks removes every chunk and resets the id sequence.
func (s *SQLiteStore) ClearDataChunks(ctx context.Context) error {
	return clearDataChunks(ctx, s.db)
}

func clearDataChunks(ctx context.Context, db execer) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM data_chunks"); err != nil {
		return fmt.Errorf("failed to delete data_chunks: %w", err)
	}
	_, err := db.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name='data_chunks'")
	if err != nil && !strings.Contains(err.Error(), "no such table") {
		slog.Warn("could not reset sequence for data_chunks", "error", err)
	}
	return nil
}

// SplitTranscript breaks transcript text into blank-line separated
// paragraphs, merging short neighbours up to maxChunkLength characters.
func SplitTranscript(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var chunks []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && len([]rune(current.String()))+len([]rune(para))+2 > maxChunkLength {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}

// IngestTranscripts replaces the knowledge base with the paragraphs of the
// transcripts file at filePath. Chunks whose embedding fails are skipped.
// The existing chunks are only replaced once every paragraph has been
// tried, and are left untouched when none could be embedded.
func (s *SQLiteStore) IngestTranscripts(ctx context.Context, filePath string, embed Embedder) (int, error) {
	contentBytes, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read transcripts file %s: %w", filePath, err)
	}

	rawChunks := SplitTranscript(string(contentBytes))
	if len(rawChunks) == 0 {
		slog.Warn("no chunks generated from transcripts file", "path", filePath)
		return 0, nil
	}
	slog.Info("embedding transcript chunks", "chunks", len(rawChunks))

	ticker := time.NewTicker(40 * time.Millisecond) // stays under 1500 embeddings/min
	defer ticker.Stop()

	chunks := make([]DataChunk, 0, len(rawChunks))
	for i, rawChunk := range rawChunks {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}

		embedding, err := embed(ctx, rawChunk)
		if err != nil {
			slog.Warn("failed to embed chunk, skipping", "index", i+1, "error", err)
			continue
		}
		chunks = append(chunks, DataChunk{Content: rawChunk, Embedding: embedding})
		if len(chunks)%10 == 0 {
			slog.Info("embedding progress", "done", len(chunks), "total", len(rawChunks))
		}
	}
	if len(chunks) == 0 {
		return 0, ErrNothingEmbedded
	}

	if err := s.replaceDataChunks(ctx, chunks); err != nil {
		return 0, err
	}
	slog.Info("ingested transcript chunks", "count", len(chunks), "skipped", len(rawChunks)-len(chunks))
	return len(chunks), nil
}

func (s *SQLiteStore) replaceDataChunks(ctx context.Context, chunks []DataChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearDataChunks(ctx, tx); err != nil {
		return err
	}
	for i := range chunks {
		if err := createDataChunk(ctx, tx, &chunks[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit data chunks: %w", err)
	}
	return nil
}
