package core

import "strings"

// Prompt types stored with every logged turn.
const (
	PromptAutomaticMessage = "mensagem_automatica"
	PromptHealthPlan       = "health_plan"
	PromptPricing          = "precificacao"
	PromptOfflineCapture   = "capitacao_sem_marketing_digital"
	PromptApplication      = "aplicacao"
	PromptCorrection       = "correcao"
	PromptReview           = "revisao"
	PromptFAQ              = "faq"
	PromptExplanation      = "explicacao"
)

type promptRule struct {
	kind  string
	terms []string
}

// Rules are checked in order; the first match wins.
var promptRules = []promptRule{
	{PromptAutomaticMessage, []string{
		"mensagem automática", "resposta automática", "mensagem padrão",
		"robô", "responder depois", "responder mais tarde", "sem tempo para responder",
		"fim de semana", "fora do horário", "mensagem fora do expediente",
	}},
	{PromptHealthPlan, []string{
		"health plan", "plano de tratamento", "meu health plan", "fazer meu health plan",
		"fazer meu plano", "dúvida no health", "dúvida no plano", "como montar meu health",
		"como montar meu plano", "criar meu plano", "montar health plan", "montar plano",
	}},
	{PromptPricing, []string{"preço", "valor", "cobrar", "precificar"}},
	{PromptOfflineCapture, []string{"atrair pacientes", "sem marketing", "sem instagram"}},
	{PromptApplication, []string{"como aplicar", "exemplo prático", "na prática"}},
	{PromptCorrection, []string{"errei", "confundi", "não entendi"}},
	{PromptReview, []string{"resumo", "revisão"}},
	{PromptFAQ, []string{"muitos perguntam", "pergunta comum"}},
}

// InferPromptType classifies a student question by keyword.
func InferPromptType(question string) string {
	q := strings.ToLower(question)
	for _, rule := range promptRules {
		if rule.kind == PromptHealthPlan && isSpecialistHealthPlan(q) {
			return PromptHealthPlan
		}
		if containsAny(q, rule.terms) {
			return rule.kind
		}
	}
	return PromptExplanation
}

func isSpecialistHealthPlan(q string) bool {
	return (strings.Contains(q, "sou pediatra") && strings.Contains(q, "health")) ||
		(strings.Contains(q, "sou psicóloga") && strings.Contains(q, "ansiedade"))
}

// Scenarios steer the instruction placed at the top of the answer prompt.
const (
	ScenarioGreeting  = "saudacao"
	ScenarioTechnical = "duvida_tecnica"
	ScenarioQuestion  = "duvida_pontual"
	ScenarioExample   = "exemplo_pratico"
	ScenarioGeneral   = "geral"
)

var (
	technicalTerms = []string{
		"data lake", "crm", "supabase", "postgres", "sql", "rls", "policy", "schema",
		"bronze", "silver", "gold", "lead", "evento", "função", "trigger", "tabela",
	}
	questionTerms = []string{
		"tenho uma dúvida", "tenho outra dúvida", "minha dúvida", "não entendi", "duvida", "dúvida", "me explica",
		"poderia explicar", "por que", "como", "o que", "quais", "qual", "explique", "me fale", "exemplo", "caso prático",
		"me mostre", "me explique", "?",
	}
	exampleTerms = []string{
		"exemplo prático", "me dá um exemplo", "passo a passo", "como fazer isso", "como faço", "me ensina", "ensinar", "me mostre como",
	}
	vagueGreetings = map[string]bool{
		"olá": true, "ola": true, "oi": true, "bom dia": true, "boa tarde": true, "boa noite": true,
		"pode me ajudar?": true, "oi, tudo bem?": true, "olá bom dia": true, "tudo bem?": true,
		"tudo certo?": true, "como vai?": true, "você pode me ajudar?": true, "me ajuda?": true, "olá, boa noite": true,
	}
	introductions = []string{"meu nome é", "sou ", "me apresentando", "me apresento", "me chamo"}
)

// DetectScenario picks the answer style for a question.
func DetectScenario(question string) string {
	q := strings.TrimSpace(strings.ToLower(question))
	if vagueGreetings[q] {
		return ScenarioGreeting
	}
	for _, intro := range introductions {
		if strings.HasPrefix(q, intro) {
			return ScenarioGreeting
		}
	}
	switch {
	case containsAny(q, technicalTerms):
		return ScenarioTechnical
	case containsAny(q, questionTerms):
		return ScenarioQuestion
	case containsAny(q, exampleTerms):
		return ScenarioExample
	default:
		return ScenarioGeneral
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
