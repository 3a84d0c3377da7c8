package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	defaultChatModelName      = "gemini-1.5-flash-latest"
	defaultEmbeddingModelName = "text-embedding-004"

	answerSystemInstruction  = "Responda SEMPRE em português do Brasil."
	summarySystemInstruction = "Você é um assistente especializado em criar resumos concisos e úteis de conversas. Responda SEMPRE em português do Brasil."
)

// Request describes one single-prompt completion.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int32
	Temperature float32
}

// LLM is the language model used for answers, summaries and embeddings.
type LLM interface {
	Complete(ctx context.Context, req Request) (string, error)
	// Stream calls onChunk for every text fragment and returns the full text.
	Stream(ctx context.Context, req Request, onChunk func(string) error) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

var errEmptyResponse = errors.New("empty response from model")

type GeminiService struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiService{
		client:         client,
		chatModel:      defaultChatModelName,
		embeddingModel: defaultEmbeddingModelName,
	}, nil
}

func (s *GeminiService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		slog.Error("error closing GenAI client", "error", err)
		return
	}
	slog.Info("GenAI client closed")
}

func (s *GeminiService) model(req Request) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.chatModel)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	cfg := genai.GenerationConfig{}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		cfg.MaxOutputTokens = &maxTokens
	}
	temp := req.Temperature
	cfg.Temperature = &temp
	model.GenerationConfig = cfg
	return model
}

func (s *GeminiService) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := s.model(req).GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", errEmptyResponse
	}
	return strings.TrimSpace(text), nil
}

func (s *GeminiService) Stream(ctx context.Context, req Request, onChunk func(string) error) (string, error) {
	iter := s.model(req).GenerateContentStream(ctx, genai.Text(req.Prompt))
	var full strings.Builder
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return full.String(), fmt.Errorf("gemini stream failed: %w", err)
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		full.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}

func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(s.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		} else {
			slog.Debug("skipping non-text response part", "type", fmt.Sprintf("%T", part))
		}
	}
	return b.String()
}
