package summary

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// space matches what browsers treat as whitespace: ASCII blanks, \v,
// Unicode separators (nbsp included) and the BOM.
const space = `[\s\v\p{Z}\x{FEFF}]*`

var (
	modulePattern = regexp.MustCompile(`(?i)(?:módulo|modulo)` + space + `(\d+)`)
	lessonPattern = regexp.MustCompile(`(?i)aula` + space + `(\d+)\.(\d+)(?:\.(\d+))?`)
)

// Analyzer computes summaries against a fixed set of tables.
// It holds no state between calls and is safe for concurrent use.
type Analyzer struct {
	tables Tables
}

// NewAnalyzer returns an analyzer using tables.
func NewAnalyzer(tables Tables) *Analyzer {
	return &Analyzer{tables: tables}
}

// NewDefaultAnalyzer returns an analyzer using DefaultTables.
func NewDefaultAnalyzer() *Analyzer {
	return NewAnalyzer(DefaultTables())
}

// Analyze builds the summary of msgs. An empty conversation yields
// EmptySummary.
func (a *Analyzer) Analyze(msgs []Message) *Summary {
	if len(msgs) == 0 {
		return EmptySummary()
	}

	topics := a.ExtractTopics(msgs)
	modules := a.ExtractModules(msgs)
	_, users, _ := countRoles(msgs)

	return &Summary{
		Overview:    Overview(msgs),
		Topics:      topics,
		Modules:     modules,
		Insights:    GenerateInsights(len(topics), len(modules), users),
		Progress:    CalculateProgress(modules),
		Suggestions: a.GenerateSuggestions(modules),
	}
}

// Overview describes the size of the conversation.
func Overview(msgs []Message) string {
	total, users, assistants := countRoles(msgs)
	return fmt.Sprintf(
		"Esta conversa contém %d mensagens (%d perguntas suas e %d respostas da assistente). "+
			"A conversa aborda questões sobre sistemas de CRM, Data Lake, arquitetura de dados e desenvolvimento de software.",
		total, users, assistants)
}

// ExtractTopics returns, in taxonomy order, every topic with at least one
// keyword occurring anywhere in the conversation. Matching is a plain
// case-insensitive substring test.
func (a *Analyzer) ExtractTopics(msgs []Message) []string {
	text := strings.ToLower(joinContents(msgs))

	topics := []string{}
	seen := make(map[string]bool)
	for _, topic := range a.tables.Topics {
		if seen[topic.Name] {
			continue
		}
		for _, kw := range topic.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				topics = append(topics, topic.Name)
				seen[topic.Name] = true
				break
			}
		}
	}
	return topics
}

// ExtractModules finds "módulo N" and "aula M.A[.S]" references. Module
// mentions come first, then lesson mentions, each in text order; repeats
// are merged by value.
func (a *Analyzer) ExtractModules(msgs []Message) []ModuleMention {
	text := joinContents(msgs)

	mentions := []ModuleMention{}
	seen := make(map[ModuleMention]bool)
	add := func(m ModuleMention) {
		if seen[m] {
			return
		}
		seen[m] = true
		mentions = append(mentions, m)
	}

	for _, match := range modulePattern.FindAllStringSubmatch(text, -1) {
		n, ok := moduleNumber(match[1])
		if !ok {
			continue
		}
		add(ModuleMention{
			Number: n,
			Name:   a.tables.DisplayNames.Name(n),
			Kind:   KindModule,
		})
	}

	for _, match := range lessonPattern.FindAllStringSubmatch(text, -1) {
		n, ok := moduleNumber(match[1])
		if !ok {
			continue
		}
		lesson, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		add(ModuleMention{
			Number: n,
			Name:   fmt.Sprintf("Módulo %d - Aula %d", n, lesson),
			Kind:   KindLesson,
			Detail: fmt.Sprintf("Aula %d", lesson),
		})
	}

	return mentions
}

// GenerateInsights applies the insight rules in their fixed order. When no
// rule fires a single "keep exploring" insight is returned.
func GenerateInsights(topicCount, moduleCount, userMessages int) []Item {
	var insights []Item

	if topicCount > 0 {
		insights = append(insights, Item{
			Icon: "💡",
			Text: fmt.Sprintf("Você explorou %d tópicos principais do curso, demonstrando interesse em áreas específicas do marketing médico.", topicCount),
		})
	}

	if moduleCount > 0 {
		insights = append(insights, Item{
			Icon: "📈",
			Text: fmt.Sprintf("Conhecimento em %d módulo(s)/aula(s) foi construído durante esta conversa.", moduleCount),
		})
	}

	if userMessages >= 5 {
		insights = append(insights, Item{
			Icon: "🎯",
			Text: fmt.Sprintf("Alta engajamento detectado com %d perguntas, indicando um estudo ativo e aprofundado.", userMessages),
		})
	}

	if len(insights) == 0 {
		insights = append(insights, Item{
			Icon: "🌟",
			Text: "Início de uma conversa sobre sistemas de CRM e Data Lake. Continue explorando os tópicos para mais insights!",
		})
	}

	return insights
}

// CalculateProgress counts the distinct modules referenced by mentions,
// whatever their kind.
func CalculateProgress(mentions []ModuleMention) Progress {
	studied := len(distinctNumbers(mentions))
	pct := int(math.Floor(float64(studied)*100/float64(TotalModules) + 0.5))

	return Progress{
		Percentage: pct,
		Studied:    studied,
		Total:      TotalModules,
		Text:       fmt.Sprintf("%d%% do curso concluído (%d/%d módulos)", pct, studied, TotalModules),
	}
}

// GenerateSuggestions proposes next steps based on the modules already seen.
func (a *Analyzer) GenerateSuggestions(mentions []ModuleMention) []Item {
	numbers := distinctNumbers(mentions)

	if len(numbers) == 0 {
		return []Item{
			{Icon: "🚀", Text: "Comece explorando Data Lake - Bronze: estrutura básica de dados"},
			{Icon: "❓", Text: "Faça uma pergunta sobre estratégias de atração de pacientes"},
		}
	}

	last := 0
	for n := range numbers {
		if n > last {
			last = n
		}
	}

	var suggestions []Item
	if last < TotalModules {
		next := last + 1
		suggestions = append(suggestions, Item{
			Icon: "➡️",
			Text: fmt.Sprintf("Continue com o Módulo %d: %s", next, a.tables.SuggestionNames.Name(next)),
		})
	}
	if numbers[1] {
		suggestions = append(suggestions, Item{
			Icon: "💰",
			Text: "Aprofunde-se no Módulo 3 sobre Precificação e Monetização",
		})
	}
	if numbers[2] {
		suggestions = append(suggestions, Item{
			Icon: "🎯",
			Text: "Explore técnicas específicas do Módulo 2 para atração de pacientes",
		})
	}
	suggestions = append(suggestions, Item{
		Icon: "🤔",
		Text: "Tire dúvidas específicas sobre sua especialidade médica",
	})

	return suggestions
}

func countRoles(msgs []Message) (total, users, assistants int) {
	for _, m := range msgs {
		switch m.Role {
		case RoleUser:
			users++
		case RoleAssistant:
			assistants++
		}
	}
	return len(msgs), users, assistants
}

func joinContents(msgs []Message) string {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = m.Content
	}
	return strings.Join(parts, " ")
}

func moduleNumber(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > TotalModules {
		return 0, false
	}
	return n, true
}

func distinctNumbers(mentions []ModuleMention) map[int]bool {
	numbers := make(map[int]bool, len(mentions))
	for _, m := range mentions {
		numbers[m.Number] = true
	}
	return numbers
}

func moduleLabel(n int) string {
	return "Módulo " + strconv.Itoa(n)
}
