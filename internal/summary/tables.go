package summary

// TotalModules is the number of modules in the course.
const TotalModules = 7

// Topic is a subject area detected through keyword presence.
type Topic struct {
	Name     string
	Keywords []string
}

// Taxonomy lists topics in declaration order, which is also the order they
// are reported in.
type Taxonomy []Topic

// Catalog maps a module number to a human readable name.
type Catalog map[int]string

// Name returns the catalog entry for n, or "Módulo n" when it is missing.
func (c Catalog) Name(n int) string {
	if name, ok := c[n]; ok {
		return name
	}
	return moduleLabel(n)
}

// Tables groups the static data the analyzer matches against.
type Tables struct {
	Topics Taxonomy
	// DisplayNames names modules found in the conversation.
	DisplayNames Catalog
	// SuggestionNames names the module proposed as the next step.
	SuggestionNames Catalog
}

// DefaultTables returns the course taxonomy and module catalogs.
func DefaultTables() Tables {
	return Tables{
		Topics: Taxonomy{
			{Name: "Atração de Pacientes", Keywords: []string{"atrair", "captação", "conquistar", "marketing", "pacientes"}},
			{Name: "Precificação", Keywords: []string{"preço", "valor", "cobrar", "precificação", "valoração"}},
			{Name: "Arquitetura de Dados", Keywords: []string{"data lake", "bronze", "silver", "gold", "arquitetura", "schema"}},
			{Name: "Comunicação com Pacientes", Keywords: []string{"comunicação", "conversa", "relacionamento", "vínculo"}},
			{Name: "Estratégias de Vendas", Keywords: []string{"venda", "vendas", "fechamento", "proposta"}},
			{Name: "Especialidades Médicas", Keywords: []string{"dermatologista", "pediatra", "psicóloga", "dentista", "cardiologista"}},
			{Name: "Health Plan", Keywords: []string{"health plan", "plano de saúde", "tratamento", "plano"}},
			{Name: "Automação", Keywords: []string{"automação", "automatizar", "whatsapp", "chatbot", "sistema"}},
		},
		DisplayNames: Catalog{
			1: "Data Lake - Bronze",
			2: "Data Lake - Silver",
			3: "Data Lake - Gold",
			4: "CRM Operacional",
			5: "RLS Policies",
			6: "Funções SQL",
			7: "Especialidades Médicas",
		},
		SuggestionNames: Catalog{
			1: "Data Lake - Bronze",
			2: "Estratégias de Atração de Pacientes",
			3: "Precificação e Monetização",
			4: "Estruturação de Processos",
			5: "Comunicação e Relacionamento",
			6: "Automação e Sistemas",
			7: "Especialidades Médicas",
		},
	}
}
