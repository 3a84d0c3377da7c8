package core

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assistente-fontes/course-assistant/internal/store"
)

type fakeLLM struct {
	mu         sync.Mutex
	completion string
	chunks     []string
	err        error
	embeddings map[string][]float32
	requests   []Request
}

func (f *fakeLLM) Complete(_ context.Context, req Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.completion, f.err
}

func (f *fakeLLM) Stream(_ context.Context, req Request, onChunk func(string) error) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	chunks, err := f.chunks, f.err
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	full := ""
	for _, c := range chunks {
		full += c
		if err := onChunk(c); err != nil {
			return full, err
		}
	}
	return full, nil
}

func (f *fakeLLM) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.embeddings[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (f *fakeLLM) lastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type staticChunks []store.DataChunk

func (c staticChunks) AllDataChunks(context.Context) ([]store.DataChunk, error) {
	return c, nil
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "core.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func collect(chunks *[]string) func(string) error {
	return func(c string) error {
		*chunks = append(*chunks, c)
		return nil
	}
}
