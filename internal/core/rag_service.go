package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/assistente-fontes/course-assistant/internal/store"
	"github.com/assistente-fontes/course-assistant/internal/utils"
)

const (
	NumRelevantChunks   = 3   // Number of chunks to retrieve for context
	SimilarityThreshold = 0.7 // Minimum similarity score to consider a chunk relevant
)

var (
	uncertaintyPhrases = []string{"não tenho certeza", "desculpe", "não sei"}
	outOfScopeTerms    = []string{
		"instagram", "vídeos para instagram", "celular para gravar", "smartphone",
		"tiktok", "post viral", "gravar vídeos", "microfone", "câmera",
		"edição de vídeo", "hashtags", "stories", "marketing de conteúdo",
		"produção de vídeo", "influencer",
	}
)

// ChunkSource provides the embedded knowledge-base chunks.
type ChunkSource interface {
	AllDataChunks(ctx context.Context) ([]store.DataChunk, error)
}

type RAGService struct {
	source ChunkSource
	llm    LLM

	mu         sync.RWMutex
	dataChunks []store.DataChunk // In-memory cache of data chunks and their embeddings
}

func NewRAGService(ctx context.Context, source ChunkSource, llm LLM) (*RAGService, error) {
	s := &RAGService{source: source, llm: llm}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload refreshes the chunk cache from the source.
func (s *RAGService) Reload(ctx context.Context) error {
	chunks, err := s.source.AllDataChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load data chunks for RAG service: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("RAG service has no data chunks; run the server with -ingest first")
	} else {
		slog.Info("RAG service loaded data chunks", "count", len(chunks))
	}
	s.mu.Lock()
	s.dataChunks = chunks
	s.mu.Unlock()
	return nil
}

type ScoredChunk struct {
	Chunk      store.DataChunk
	Similarity float32
}

// GetRelevantContext returns up to NumRelevantChunks chunks similar to
// query, or "" when nothing relevant and acceptable was found.
func (s *RAGService) GetRelevantContext(ctx context.Context, query string) (string, error) {
	s.mu.RLock()
	chunks := s.dataChunks
	s.mu.RUnlock()
	if len(chunks) == 0 {
		return "", nil
	}

	queryEmbedding, err := s.llm.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to get query embedding: %w", err)
	}

	scoredChunks := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		similarity, err := utils.CosineSimilarity(queryEmbedding, chunk.Embedding)
		if err != nil {
			slog.Debug("skipping chunk", "chunk_id", chunk.ID, "error", err)
			continue
		}
		if similarity >= SimilarityThreshold {
			scoredChunks = append(scoredChunks, ScoredChunk{Chunk: chunk, Similarity: similarity})
		}
	}

	sort.SliceStable(scoredChunks, func(i, j int) bool {
		return scoredChunks[i].Similarity > scoredChunks[j].Similarity
	})

	parts := make([]string, 0, NumRelevantChunks)
	for i := 0; i < len(scoredChunks) && i < NumRelevantChunks; i++ {
		parts = append(parts, scoredChunks[i].Chunk.Content)
	}
	if len(parts) == 0 {
		slog.Debug("no relevant chunks found", "threshold", SimilarityThreshold)
		return "", nil
	}

	contextText := strings.Join(parts, "\n\n")
	if reason := rejectContext(contextText); reason != "" {
		slog.Debug("context rejected", "reason", reason)
		return "", nil
	}
	return contextText, nil
}

// rejectContext reports why retrieved text must not be used, or "".
func rejectContext(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" || lower == "none" || lower == "null" {
		return "empty"
	}
	if containsAny(lower, uncertaintyPhrases) {
		return "uncertainty phrase"
	}
	if containsAny(lower, outOfScopeTerms) {
		return "out of scope term"
	}
	return ""
}
