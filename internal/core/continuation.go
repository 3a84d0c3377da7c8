package core

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	continueQuestion = "Quer que eu continue?"
	continueHint     = "\n\n---\n\n**Parece que ainda tem mais conteúdo. Quer que eu continue?**"

	QuickReplyContinue = "Continuar"
)

var (
	numberedLineRe = regexp.MustCompile(`^\d+\.\s+`)
	headingLineRe  = regexp.MustCompile(`^#{1,6}\s+`)
	brReplacer     = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n")
	truncSuffixes  = []string{"-", "•", "*", "1.", "2.", "3.", "4.", "5.", "6.", "7.", "8.", "9.", "10."}
)

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// LooksTruncated reports answers that end mid-list or on a short
// unpunctuated line.
func LooksTruncated(text string) bool {
	t := strings.TrimSpace(brReplacer.Replace(strings.TrimSpace(text)))
	if t == "" {
		return false
	}
	for _, suffix := range truncSuffixes {
		if strings.HasSuffix(t, suffix) {
			return true
		}
	}
	runes := []rune(t)
	if !isAlnum(runes[len(runes)-1]) {
		return false
	}
	lines := strings.Split(t, "\n")
	lastLine := []rune(strings.TrimSpace(lines[len(lines)-1]))
	return len(lastLine) > 0 && len(lastLine) <= 12 && isAlnum(lastLine[len(lastLine)-1])
}

// ShouldOfferContinue reports answers long or structured enough to be
// delivered in parts.
func ShouldOfferContinue(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || strings.Contains(t, continueQuestion) {
		return false
	}
	plain := brReplacer.Replace(t)
	if len([]rune(plain)) >= 1400 {
		return true
	}

	var lines []string
	for _, ln := range strings.Split(plain, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) >= 18 {
		return true
	}

	bullets, headings := 0, 0
	for _, ln := range lines {
		if strings.HasPrefix(ln, "-") || strings.HasPrefix(ln, "*") || strings.HasPrefix(ln, "•") || numberedLineRe.MatchString(ln) {
			bullets++
		}
		if headingLineRe.MatchString(ln) {
			headings++
		}
	}
	return bullets >= 8 || headings >= 3
}

// AppendContinueHint adds the continuation question unless already present.
func AppendContinueHint(text string) string {
	if strings.Contains(text, continueQuestion) {
		return text
	}
	return strings.TrimRightFunc(text, unicode.IsSpace) + continueHint
}

// FinalizeAnswer applies the continuation hint where needed.
func FinalizeAnswer(text string) string {
	if LooksTruncated(text) || ShouldOfferContinue(text) {
		return AppendContinueHint(text)
	}
	return text
}

// QuickReplies offers follow-ups for an answer.
func QuickReplies(answer string) []string {
	replies := []string{"Tenho outra dúvida", "Aprofundar este tópico"}
	if strings.Contains(answer, continueQuestion) {
		replies = append([]string{QuickReplyContinue}, replies...)
	}
	return replies
}
