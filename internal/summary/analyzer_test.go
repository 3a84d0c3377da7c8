package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(content string) Message      { return Message{Role: RoleUser, Content: content} }
func assistantMsg(content string) Message { return Message{Role: RoleAssistant, Content: content} }

func TestAnalyzeEmptyConversation(t *testing.T) {
	a := NewDefaultAnalyzer()

	for _, msgs := range [][]Message{nil, {}} {
		s := a.Analyze(msgs)
		require.True(t, s.IsEmpty())
		assert.Equal(t, DefaultEmptyState.Overview, s.Overview)
		assert.Empty(t, s.Topics)
		assert.Empty(t, s.Modules)
		assert.Empty(t, s.Insights)
		assert.Empty(t, s.Suggestions)
		assert.Equal(t, Progress{Percentage: 0, Studied: 0, Total: 7, Text: "0% do curso concluído"}, s.Progress)
	}
}

func TestAnalyzeConversation(t *testing.T) {
	a := NewDefaultAnalyzer()
	msgs := []Message{
		userMsg("Quero entender o módulo 1 e o preço"),
		assistantMsg("No módulo 2 falamos da aula 2.3"),
	}

	s := a.Analyze(msgs)
	require.False(t, s.IsEmpty())

	assert.Equal(t,
		"Esta conversa contém 2 mensagens (1 perguntas suas e 1 respostas da assistente). "+
			"A conversa aborda questões sobre sistemas de CRM, Data Lake, arquitetura de dados e desenvolvimento de software.",
		s.Overview)
	assert.Equal(t, []string{"Precificação"}, s.Topics)
	assert.Equal(t, []ModuleMention{
		{Number: 1, Name: "Data Lake - Bronze", Kind: KindModule},
		{Number: 2, Name: "Data Lake - Silver", Kind: KindModule},
		{Number: 2, Name: "Módulo 2 - Aula 3", Kind: KindLesson, Detail: "Aula 3"},
	}, s.Modules)

	require.Len(t, s.Insights, 2)
	assert.Equal(t, "💡", s.Insights[0].Icon)
	assert.Contains(t, s.Insights[0].Text, "1 tópicos")
	assert.Equal(t, "📈", s.Insights[1].Icon)
	assert.Contains(t, s.Insights[1].Text, "3 módulo(s)/aula(s)")

	assert.Equal(t, 29, s.Progress.Percentage)
	assert.Equal(t, 2, s.Progress.Studied)
	assert.Equal(t, "29% do curso concluído (2/7 módulos)", s.Progress.Text)
	assert.Len(t, s.Suggestions, 4)
}

func TestExtractTopics(t *testing.T) {
	a := NewDefaultAnalyzer()

	t.Run("single keyword", func(t *testing.T) {
		got := a.ExtractTopics([]Message{userMsg("preço")})
		assert.Equal(t, []string{"Precificação"}, got)
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := a.ExtractTopics([]Message{userMsg("Uso o WHATSAPP para tudo")})
		assert.Equal(t, []string{"Automação"}, got)
	})

	t.Run("substring match is loose", func(t *testing.T) {
		got := a.ExtractTopics([]Message{userMsg("minhas vendas caíram")})
		assert.Equal(t, []string{"Estratégias de Vendas"}, got)
	})

	t.Run("keywords can span messages", func(t *testing.T) {
		got := a.ExtractTopics([]Message{userMsg("data"), assistantMsg("lake")})
		assert.Equal(t, []string{"Arquitetura de Dados"}, got)
	})

	t.Run("taxonomy order regardless of text order", func(t *testing.T) {
		got := a.ExtractTopics([]Message{userMsg("chatbot"), userMsg("sou pediatra"), userMsg("quanto cobrar")})
		assert.Equal(t, []string{"Precificação", "Especialidades Médicas", "Automação"}, got)
	})

	t.Run("no match", func(t *testing.T) {
		got := a.ExtractTopics([]Message{userMsg("oi, tudo bem?")})
		assert.Empty(t, got)
	})
}

func TestExtractTopicsSubsetOfTaxonomy(t *testing.T) {
	a := NewDefaultAnalyzer()
	tables := DefaultTables()
	known := make(map[string]bool)
	for _, topic := range tables.Topics {
		known[topic.Name] = true
	}

	inputs := []string{
		"marketing, preço, schema, vínculo, proposta, dentista, plano, sistema",
		"nada relevante aqui",
		"GOLD silver Bronze",
	}
	for _, in := range inputs {
		text := strings.ToLower(in)
		got := a.ExtractTopics([]Message{userMsg(in)})
		for _, name := range got {
			require.True(t, known[name], name)
		}
		for _, topic := range tables.Topics {
			hit := false
			for _, kw := range topic.Keywords {
				if strings.Contains(text, kw) {
					hit = true
				}
			}
			assert.Equal(t, hit, contains(got, topic.Name), "%q / %s", in, topic.Name)
		}
	}
}

func TestExtractModules(t *testing.T) {
	a := NewDefaultAnalyzer()

	t.Run("module and lesson", func(t *testing.T) {
		got := a.ExtractModules([]Message{userMsg("módulo 3"), userMsg("aula 2.5")})
		assert.Equal(t, []ModuleMention{
			{Number: 3, Name: "Data Lake - Gold", Kind: KindModule},
			{Number: 2, Name: "Módulo 2 - Aula 5", Kind: KindLesson, Detail: "Aula 5"},
		}, got)
	})

	t.Run("accent and case insensitive", func(t *testing.T) {
		got := a.ExtractModules([]Message{userMsg("MODULO 4 e Módulo 5 e MÓDULO 6")})
		require.Len(t, got, 3)
		assert.Equal(t, []int{4, 5, 6}, numbers(got))
	})

	t.Run("whitespace optional", func(t *testing.T) {
		got := a.ExtractModules([]Message{userMsg("modulo7 aula1.2")})
		assert.Equal(t, []ModuleMention{
			{Number: 7, Name: "Especialidades Médicas", Kind: KindModule},
			{Number: 1, Name: "Módulo 1 - Aula 2", Kind: KindLesson, Detail: "Aula 2"},
		}, got)
	})

	t.Run("unicode whitespace", func(t *testing.T) {
		for _, sep := range []string{"\u00a0", "\u2003", "\u3000", "\ufeff", "\v", "\u00a0 \t"} {
			got := a.ExtractModules([]Message{userMsg("Veja o Módulo" + sep + "3 e a aula" + sep + "2.5")})
			assert.Equal(t, []ModuleMention{
				{Number: 3, Name: "Data Lake - Gold", Kind: KindModule},
				{Number: 2, Name: "Módulo 2 - Aula 5", Kind: KindLesson, Detail: "Aula 5"},
			}, got, "separator %q", sep)
		}
	})

	t.Run("sub lesson ignored", func(t *testing.T) {
		got := a.ExtractModules([]Message{userMsg("veja a aula 7.2.2")})
		assert.Equal(t, []ModuleMention{
			{Number: 7, Name: "Módulo 7 - Aula 2", Kind: KindLesson, Detail: "Aula 2"},
		}, got)
	})

	t.Run("out of range ignored", func(t *testing.T) {
		got := a.ExtractModules([]Message{userMsg("módulo 0, módulo 8, aula 9.1, módulo 99999999999999999999")})
		assert.Empty(t, got)
	})

	t.Run("lesson number unconstrained", func(t *testing.T) {
		got := a.ExtractModules([]Message{userMsg("aula 3.42")})
		assert.Equal(t, []ModuleMention{
			{Number: 3, Name: "Módulo 3 - Aula 42", Kind: KindLesson, Detail: "Aula 42"},
		}, got)
	})

	t.Run("repeated mentions merged", func(t *testing.T) {
		got := a.ExtractModules([]Message{
			userMsg("módulo 1"),
			assistantMsg("sim, o modulo 1 e a aula 1.1"),
			userMsg("e de novo a aula 1.1, depois aula 1.2"),
		})
		assert.Equal(t, []ModuleMention{
			{Number: 1, Name: "Data Lake - Bronze", Kind: KindModule},
			{Number: 1, Name: "Módulo 1 - Aula 1", Kind: KindLesson, Detail: "Aula 1"},
			{Number: 1, Name: "Módulo 1 - Aula 2", Kind: KindLesson, Detail: "Aula 2"},
		}, got)
	})

	t.Run("catalog fallback name", func(t *testing.T) {
		tables := DefaultTables()
		delete(tables.DisplayNames, 5)
		got := NewAnalyzer(tables).ExtractModules([]Message{userMsg("módulo 5")})
		require.Len(t, got, 1)
		assert.Equal(t, "Módulo 5", got[0].Name)
	})
}

func TestGenerateInsights(t *testing.T) {
	t.Run("engagement threshold", func(t *testing.T) {
		got := GenerateInsights(0, 0, 5)
		require.Len(t, got, 1)
		assert.Equal(t, "🎯", got[0].Icon)
		assert.Contains(t, got[0].Text, "5 perguntas")

		got = GenerateInsights(0, 0, 4)
		require.Len(t, got, 1)
		assert.Equal(t, "🌟", got[0].Icon)
	})

	t.Run("all rules in order", func(t *testing.T) {
		got := GenerateInsights(2, 3, 6)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"💡", "📈", "🎯"}, icons(got))
	})

	t.Run("through analyzer", func(t *testing.T) {
		a := NewDefaultAnalyzer()
		msgs := []Message{userMsg("oi"), userMsg("oi"), userMsg("oi"), userMsg("oi"), userMsg("oi")}
		s := a.Analyze(msgs)
		assert.Equal(t, []string{"🎯"}, icons(s.Insights))

		s = a.Analyze(msgs[:4])
		assert.Equal(t, []string{"🌟"}, icons(s.Insights))
	})
}

func TestCalculateProgress(t *testing.T) {
	want := []int{0, 14, 29, 43, 57, 71, 86, 100}
	for studied := 0; studied <= 7; studied++ {
		var mentions []ModuleMention
		for n := 1; n <= studied; n++ {
			mentions = append(mentions,
				ModuleMention{Number: n, Kind: KindModule},
				ModuleMention{Number: n, Kind: KindLesson, Detail: "Aula 1"})
		}
		p := CalculateProgress(mentions)
		assert.Equal(t, want[studied], p.Percentage, "studied=%d", studied)
		assert.Equal(t, studied, p.Studied)
		assert.Equal(t, 7, p.Total)
		assert.GreaterOrEqual(t, p.Percentage, 0)
		assert.LessOrEqual(t, p.Percentage, 100)
	}
}

func TestGenerateSuggestions(t *testing.T) {
	a := NewDefaultAnalyzer()

	t.Run("nothing studied", func(t *testing.T) {
		got := a.GenerateSuggestions(nil)
		assert.Equal(t, []Item{
			{Icon: "🚀", Text: "Comece explorando Data Lake - Bronze: estrutura básica de dados"},
			{Icon: "❓", Text: "Faça uma pergunta sobre estratégias de atração de pacientes"},
		}, got)
	})

	t.Run("modules one and two", func(t *testing.T) {
		got := a.GenerateSuggestions([]ModuleMention{{Number: 1}, {Number: 2}})
		assert.Equal(t, []Item{
			{Icon: "➡️", Text: "Continue com o Módulo 3: Precificação e Monetização"},
			{Icon: "💰", Text: "Aprofunde-se no Módulo 3 sobre Precificação e Monetização"},
			{Icon: "🎯", Text: "Explore técnicas específicas do Módulo 2 para atração de pacientes"},
			{Icon: "🤔", Text: "Tire dúvidas específicas sobre sua especialidade médica"},
		}, got)
	})

	t.Run("last module has no successor", func(t *testing.T) {
		got := a.GenerateSuggestions([]ModuleMention{{Number: 7}})
		assert.Equal(t, []string{"🤔"}, icons(got))
	})

	t.Run("next module uses suggestion catalog", func(t *testing.T) {
		got := a.GenerateSuggestions([]ModuleMention{{Number: 5, Kind: KindLesson}})
		require.Len(t, got, 2)
		assert.Equal(t, "Continue com o Módulo 6: Automação e Sistemas", got[0].Text)
	})

	t.Run("module one rule independent of last", func(t *testing.T) {
		got := a.GenerateSuggestions([]ModuleMention{{Number: 1}, {Number: 7}})
		assert.Equal(t, []string{"💰", "🤔"}, icons(got))
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func numbers(mentions []ModuleMention) []int {
	out := make([]int, len(mentions))
	for i, m := range mentions {
		out[i] = m.Number
	}
	return out
}

func icons(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Icon
	}
	return out
}
