package summary

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNothingToExport is returned when exporting the summary of an empty
// conversation.
var ErrNothingToExport = errors.New("nenhum resumo para exportar")

// ExportFilename is the download name of a report generated at t.
func ExportFilename(t time.Time) string {
	return "resumo-conversa-" + t.Format("2006-01-02") + ".txt"
}

// WriteText renders s as the plain-text report offered for download.
func WriteText(w io.Writer, s *Summary, generatedAt time.Time) error {
	if s.IsEmpty() {
		return ErrNothingToExport
	}

	var b strings.Builder
	b.WriteString("RESUMO DA CONVERSA - Sistema CRM/Data Lake\n")
	b.WriteString("=============================================\n\n")

	b.WriteString("📝 RESUMO GERAL\n")
	b.WriteString(s.Overview)
	b.WriteString("\n\n")

	b.WriteString("🎯 TÓPICOS ABORDADOS\n")
	writeList(&b, s.Topics, "Nenhum")
	b.WriteString("\n")

	names := make([]string, len(s.Modules))
	for i, m := range s.Modules {
		names[i] = m.Name
	}
	b.WriteString("📚 MÓDULOS/AULAS COBERTOS\n")
	writeList(&b, names, "Nenhum")
	b.WriteString("\n")

	b.WriteString("💡 INSIGHTS PRINCIPAIS\n")
	writeList(&b, itemTexts(s.Insights), "")
	b.WriteString("\n")

	b.WriteString("🚀 PROGRESSO NA JORNADA\n")
	b.WriteString(s.Progress.Text)
	b.WriteString("\n\n")

	b.WriteString("➡️ PRÓXIMOS PASSOS SUGERIDOS\n")
	writeList(&b, itemTexts(s.Suggestions), "")
	b.WriteString("\n")

	b.WriteString("---\n")
	b.WriteString("Gerado em: " + generatedAt.Format("02/01/2006 15:04:05"))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write summary report: %w", err)
	}
	return nil
}

func writeList(b *strings.Builder, lines []string, none string) {
	if len(lines) == 0 {
		b.WriteString(none)
		b.WriteString("\n")
		return
	}
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func itemTexts(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}
