package core

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/assistente-fontes/course-assistant/internal/store"
)

// OutOfScopeMessage is sent when no answer can be produced.
const OutOfScopeMessage = "Desculpe, ainda não tenho informações suficientes sobre esse tema específico. " +
	"Por favor, envie outra pergunta ou consulte a documentação disponível."

const (
	historyWindow = 5
	noHistory     = "Nenhuma conversa anterior."

	continueGuardrails = "IMPORTANTE (tamanho e continuidade): " +
		"Se a resposta ficar longa, entregue em partes. " +
		"Conclua a PARTE atual de forma completa (não deixe itens numerados/bullets pela metade) " +
		"e finalize com a frase: 'Quer que eu continue?' " +
		"Não continue automaticamente sem o Doutor(a) pedir."
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

var scenarioInstructions = map[string]string{
	ScenarioGreeting: "O usuário enviou uma saudação/mensagem inicial (ex: 'oi', 'tudo bem?'). " +
		"Responda de forma acolhedora e objetiva, explique rapidamente como você pode ajudar com questões sobre " +
		"sistemas de CRM, Data Lake, arquitetura de dados, Supabase, PostgreSQL e desenvolvimento de software.",
	ScenarioTechnical: "Ótima pergunta técnica!<br>" +
		"Forneça uma explicação detalhada e precisa sobre o tema, com exemplos práticos quando possível.<br>",
	ScenarioQuestion: "Ótima pergunta!<br>" +
		"Forneça uma explicação detalhada sobre o tema, seguida de exemplos práticos quando possível.<br>",
	ScenarioExample: "Ótima pergunta!<br>" +
		"Forneça uma explicação detalhada sobre o tema, seguida de exemplos práticos quando possível.<br>",
}

// TurnRecorder persists answered turns.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, turn *store.Turn) error
}

// HealthPlanRecorder collects health-plan questions for review.
type HealthPlanRecorder interface {
	Record(question, username string) error
}

// ContextRetriever finds knowledge-base text relevant to a question.
type ContextRetriever interface {
	GetRelevantContext(ctx context.Context, query string) (string, error)
}

// TurnResult is the outcome of one answered question.
type TurnResult struct {
	ConversationID string   `json:"conversation_id"`
	Content        string   `json:"content"`
	DurationMS     int64    `json:"duration_ms"`
	NumTurns       int      `json:"num_turns"`
	QuickReplies   []string `json:"quick_replies"`
	PromptType     string   `json:"-"`
}

type ChatService struct {
	llm           LLM
	retriever     ContextRetriever
	turns         TurnRecorder
	healthPlans   HealthPlanRecorder
	conversations *ConversationStore
	now           func() time.Time
}

func NewChatService(llm LLM, retriever ContextRetriever, turns TurnRecorder, healthPlans HealthPlanRecorder, conversations *ConversationStore) *ChatService {
	if conversations == nil {
		conversations = NewConversationStore(MaxConversations)
	}
	return &ChatService{
		llm:           llm,
		retriever:     retriever,
		turns:         turns,
		healthPlans:   healthPlans,
		conversations: conversations,
		now:           time.Now,
	}
}

func (s *ChatService) Conversations() *ConversationStore {
	return s.conversations
}

// Answer runs one chat turn: it retrieves context, streams the model answer
// through onChunk and logs the exchange under "ws_<conversationID>".
func (s *ChatService) Answer(ctx context.Context, conversationID, question string, onChunk func(string) error) (*TurnResult, error) {
	if conversationID == "" {
		conversationID = NewConversationID()
	}
	start := s.now()
	prior := s.conversations.begin(conversationID, question)

	promptType := InferPromptType(question)
	username := wsUsernamePrefix + conversationID
	if promptType == PromptHealthPlan && s.healthPlans != nil {
		if err := s.healthPlans.Record(question, username); err != nil {
			slog.Warn("failed to record health plan question", "error", err)
		}
	}

	ragContext := ""
	if s.retriever != nil {
		var err error
		ragContext, err = s.retriever.GetRelevantContext(ctx, question)
		if err != nil {
			slog.Warn("failed to get relevant context, proceeding without it", "error", err)
			ragContext = ""
		}
	}

	req := Request{
		System:      answerSystemInstruction,
		Prompt:      BuildAnswerPrompt(question, ragContext, prior),
		MaxTokens:   2048,
		Temperature: 0.4,
	}

	var quickReplies []string
	answer, err := s.llm.Stream(ctx, req, onChunk)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("failed to stream answer", "conversation_id", conversationID, "error", err)
		answer = OutOfScopeMessage
		if err := onChunk(answer); err != nil {
			return nil, err
		}
		quickReplies = []string{}
	} else {
		answer = FinalizeAnswer(answer)
		quickReplies = QuickReplies(answer)
	}

	numTurns := s.conversations.complete(conversationID, answer, quickReplies)

	turn := &store.Turn{
		Username:   username,
		Question:   question,
		Answer:     answer,
		Context:    ragContext,
		PromptType: promptType,
	}
	if err := s.turns.RecordTurn(ctx, turn); err != nil {
		slog.Error("failed to record turn", "conversation_id", conversationID, "error", err)
	}

	return &TurnResult{
		ConversationID: conversationID,
		Content:        answer,
		DurationMS:     s.now().Sub(start).Milliseconds(),
		NumTurns:       numTurns,
		QuickReplies:   quickReplies,
		PromptType:     promptType,
	}, nil
}

// BuildAnswerPrompt assembles the model prompt for question.
func BuildAnswerPrompt(question, ragContext string, history []HistoryItem) string {
	return fmt.Sprintf(`%s

%s

Você é um assistente inteligente especializado em ajudar com questões sobre sistemas de CRM, Data Lake, arquitetura de dados e desenvolvimento de software.

Leia atentamente o histórico da conversa antes de responder, compreendendo o contexto exato da interação atual para garantir precisão na sua resposta.

BASE DE CONHECIMENTO DISPONÍVEL:
O sistema possui documentação sobre arquitetura de Data Lake (Bronze → Silver → Gold), CRM inteligente, RLS Policies para Supabase, funções SQL transacionais, e estruturas de banco de dados para sistemas enterprise.

Histórico da conversa anterior:
%s

Pergunta atual do usuário:
'%s'

Utilize o conteúdo adicional abaixo, se relevante:
%s
`, scenarioInstructions[DetectScenario(question)], continueGuardrails, FormatHistory(history), question, ragContext)
}

// FormatHistory renders the last few turns as plain text without HTML.
func FormatHistory(history []HistoryItem) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	var lines []string
	for _, item := range history {
		user := strings.TrimSpace(htmlTagRe.ReplaceAllString(item.User, ""))
		ai := strings.TrimSpace(htmlTagRe.ReplaceAllString(item.AI, ""))
		if user != "" {
			lines = append(lines, "Usuário: "+user)
		}
		if ai != "" {
			lines = append(lines, "Assistente: "+ai, "")
		}
	}
	if len(lines) == 0 {
		return noHistory
	}
	return strings.Join(lines, "\n")
}
