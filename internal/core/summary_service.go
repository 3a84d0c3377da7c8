package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/assistente-fontes/course-assistant/internal/summary"
)

const (
	maxTranscriptLength = 3000
	truncatedMarker     = "\n\n[... conversação truncada ...]"
	streamClippedMarker = "... (resumo truncado)"

	EmptyConversationSummary  = "Conversa vazia."
	NoTextConversationSummary = "Conversa sem conteúdo textual."
)

// SummaryService writes short natural-language summaries of conversations.
type SummaryService struct {
	llm       LLM
	maxLength int
}

func NewSummaryService(llm LLM, maxLength int) *SummaryService {
	if maxLength <= 3 {
		maxLength = 500
	}
	return &SummaryService{llm: llm, maxLength: maxLength}
}

// BuildTranscript renders messages as "Usuário: ..." / "Assistente: ..."
// paragraphs, skipping blank ones.
func BuildTranscript(msgs []summary.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		prefix := "Assistente"
		if strings.EqualFold(string(m.Role), string(summary.RoleUser)) {
			prefix = "Usuário"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", prefix, content)
	}
	return b.String()
}

func truncateTranscript(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTranscriptLength {
		return text
	}
	return string(runes[:maxTranscriptLength]) + truncatedMarker
}

func (s *SummaryService) prompt(transcript string) string {
	return fmt.Sprintf(`
Por favor, crie um resumo conciso desta conversa em português brasileiro.

DIRETRIZES:
- Máximo de %d caracteres
- 2-3 frases apenas
- Destaque os tópicos principais discutidos
- Mencione conclusões ou decisões importantes
- Se houver próximos passos mencionados, inclua-os
- Use linguagem clara e objetiva
- Não use markdown ou formatação especial

CONVERSA:
%s

RESUMO:
`, s.maxLength, transcript)
}

// sentinel returns the fixed summary for conversations with nothing to
// summarize, plus the transcript to send otherwise.
func sentinel(msgs []summary.Message) (string, string) {
	if len(msgs) == 0 {
		return EmptyConversationSummary, ""
	}
	transcript := BuildTranscript(msgs)
	if strings.TrimSpace(transcript) == "" {
		return NoTextConversationSummary, ""
	}
	return "", truncateTranscript(transcript)
}

func (s *SummaryService) request(transcript string) Request {
	return Request{
		System:      summarySystemInstruction,
		Prompt:      s.prompt(transcript),
		MaxTokens:   300,
		Temperature: 0.3,
	}
}

// Generate returns a summary of at most the configured length.
func (s *SummaryService) Generate(ctx context.Context, msgs []summary.Message) (string, error) {
	fixed, transcript := sentinel(msgs)
	if fixed != "" {
		return fixed, nil
	}
	text, err := s.llm.Complete(ctx, s.request(transcript))
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	return clip(strings.TrimSpace(text), s.maxLength), nil
}

// Stream forwards summary text as the model produces it. When the result
// exceeds the configured length a final marker chunk is sent.
func (s *SummaryService) Stream(ctx context.Context, msgs []summary.Message, onChunk func(string) error) error {
	fixed, transcript := sentinel(msgs)
	if fixed != "" {
		return onChunk(fixed)
	}
	full, err := s.llm.Stream(ctx, s.request(transcript), onChunk)
	if err != nil {
		return fmt.Errorf("failed to stream summary: %w", err)
	}
	if len([]rune(full)) > s.maxLength {
		return onChunk(streamClippedMarker)
	}
	return nil
}

func clip(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength-3]) + "..."
}
