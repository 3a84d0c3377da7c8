package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func strPtr(s string) *string { return &s }

func TestRecordAndListTurns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, turn := range []*Turn{
		{Username: "abc", Question: "q1", Answer: "a1", PromptType: "explicacao"},
		{Username: "ws_abc", Question: "q2", Answer: "a2", Module: strPtr("1")},
		{Username: "other", Question: "q3", Answer: "a3"},
	} {
		require.NoError(t, s.RecordTurn(ctx, turn))
		assert.NotZero(t, turn.ID)
		assert.False(t, turn.CreatedAt.IsZero())
	}

	turns, err := s.TurnsByUsernames(ctx, []string{"abc", "ws_abc"})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Question)
	assert.Nil(t, turns[0].Module)
	require.NotNil(t, turns[1].Module)
	assert.Equal(t, "1", *turns[1].Module)

	activity, err := s.ListSessionActivity(ctx)
	require.NoError(t, err)
	require.Len(t, activity, 3)
	assert.Equal(t, "other", activity[0].Username)
	assert.Equal(t, 1, activity[0].MessageCount)

	all, err := s.AllTurns(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "q3", all[0].Question)
}

func TestDeleteTurns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	users := []string{"abc", "ws_abc"}

	for _, q := range []string{"q1", "q2", "q3"} {
		require.NoError(t, s.RecordTurn(ctx, &Turn{Username: "abc", Question: q}))
	}
	require.NoError(t, s.RecordTurn(ctx, &Turn{Username: "zzz", Question: "other"}))

	id, err := s.TurnIDAtOffset(ctx, users, 1)
	require.NoError(t, err)

	n, err := s.DeleteTurn(ctx, id, []string{"zzz"})
	require.NoError(t, err)
	assert.Zero(t, n, "turn of another session must not be deleted")

	n, err = s.DeleteTurn(ctx, id, users)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.TurnIDAtOffset(ctx, users, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err = s.DeleteTurnsByUsernames(ctx, users)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	left, err := s.AllTurns(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "zzz", left[0].Username)
}

func TestSessionMetadata(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetSessionMetadata(ctx, "abc")
	require.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.SaveSessionMetadata(ctx, "abc", MetadataUpdate{Title: strPtr("Primeira"), Tags: strPtr("crm")}))
	require.NoError(t, s.SaveSessionMetadata(ctx, "abc", MetadataUpdate{Summary: strPtr("Resumo")}))

	meta, err := s.GetSessionMetadata(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, meta.Title)
	assert.Equal(t, "Primeira", *meta.Title)
	assert.Equal(t, "Resumo", *meta.Summary)
	assert.Equal(t, "crm", *meta.Tags)
	assert.False(t, meta.Hidden)

	require.NoError(t, s.SetSessionHidden(ctx, "abc", true))
	require.NoError(t, s.SetSessionHidden(ctx, "new", true))
	hidden, err := s.HiddenSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"abc": true, "new": true}, hidden)

	meta, err = s.GetSessionMetadata(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, meta.Hidden)
	assert.Equal(t, "Primeira", *meta.Title)
}

func TestSplitTranscript(t *testing.T) {
	text := "Primeiro parágrafo.\r\n\r\nSegundo parágrafo.\n\n\n\n"
	chunks := SplitTranscript(text)
	assert.Equal(t, []string{"Primeiro parágrafo.\n\nSegundo parágrafo."}, chunks)

	long := make([]byte, maxChunkLength)
	for i := range long {
		long[i] = 'a'
	}
	chunks = SplitTranscript(string(long) + "\n\nfim")
	assert.Len(t, chunks, 2)
	assert.Equal(t, "fim", chunks[1])

	assert.Empty(t, SplitTranscript(" \n\n "))
}

func TestIngestTranscripts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	path := filepath.Join(t.TempDir(), "transcricoes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Aula sobre preço.\n\nAula sobre captação."), 0o644))

	embed := func(_ context.Context, text string) ([]float32, error) {
		return []float32{float32(len(text)), 1}, nil
	}
	n, err := s.IngestTranscripts(ctx, path, embed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	chunks, err := s.AllDataChunks(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []float32{float32(len(chunks[0].Content)), 1}, chunks[0].Embedding)

	failing := func(context.Context, string) ([]float32, error) { return nil, errors.New("quota") }
	n, err = s.IngestTranscripts(ctx, path, failing)
	assert.ErrorIs(t, err, ErrNothingEmbedded)
	assert.Zero(t, n)
	kept, err := s.AllDataChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, kept)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.IngestTranscripts(cancelled, path, embed)
	assert.ErrorIs(t, err, context.Canceled)
	kept, err = s.AllDataChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	_, err = s.IngestTranscripts(ctx, filepath.Join(t.TempDir(), "missing.txt"), embed)
	assert.Error(t, err)
}

func TestHealthPlanLog(t *testing.T) {
	l := NewHealthPlanLog(filepath.Join(t.TempDir(), "logs", "healthplan.json"))
	l.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	entries, err := l.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, l.Record("Como montar meu health plan?", "abc"))
	require.NoError(t, l.Record("Dúvida no plano", "def"))

	entries, err = l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, HealthPlanQuestion{Question: "Como montar meu health plan?", Username: "abc", Date: "2025-01-02 03:04:05"}, entries[0])
	assert.Equal(t, "def", entries[1].Username)
}
