package advisor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agrisense/advisor/internal/session"
)

const systemPrompt = `You are an agricultural advisor helping smallholder farmers.
Give practical, step-by-step advice in plain language.
Prefer organic and cultural measures first. When you mention a chemical
treatment, include the safety precautions for applying it.
Keep the answer under 200 words.`

// Prompt is the input handed to a Generator.
type Prompt struct {
	System  string
	History []session.Turn
	User    string
}

// Len returns the size of the prompt in bytes.
func (p Prompt) Len() int {
	n := len(p.System) + len(p.User)
	for _, t := range p.History {
		n += len(t.Text)
	}
	return n
}

// String renders the prompt as plain text, for logs and crash reports.
func (p Prompt) String() string {
	var sb strings.Builder
	sb.WriteString(p.System)
	for _, t := range p.History {
		fmt.Fprintf(&sb, "\n[%s] %s", t.Role, t.Text)
	}
	sb.WriteString("\n[user] ")
	sb.WriteString(p.User)
	return sb.String()
}

// BuildPrompt assembles a prompt from the query, an optional validated
// diagnosis and at most maxHistory of the most recent turns. Older turns are
// dropped until the prompt fits in maxChars; if it still does not fit, the
// end of the user section is cut.
func BuildPrompt(query string, diag *DiagnosisContext, history []session.Turn, maxHistory, maxChars int) Prompt {
	if maxHistory >= 0 && len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}

	var sb strings.Builder
	if diag != nil {
		sb.WriteString("Diagnosis context:\n")
		fmt.Fprintf(&sb, "- Crop: %s\n", diag.Crop)
		fmt.Fprintf(&sb, "- Disease: %s\n", diag.DiseaseName)
		fmt.Fprintf(&sb, "- Confidence: %.0f%%\n", diag.ConfidencePercent())
		fmt.Fprintf(&sb, "- Severity: %s\n", diag.Severity)
		if len(diag.Treatments) > 0 {
			sb.WriteString("- Suggested treatments:\n")
			for _, t := range diag.Treatments {
				fmt.Fprintf(&sb, "  - %s (%s)\n", t.Name, t.Type)
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Farmer question: ")
	sb.WriteString(strings.TrimSpace(query))

	p := Prompt{
		System:  systemPrompt,
		History: append([]session.Turn(nil), history...),
		User:    sb.String(),
	}
	for maxChars > 0 && p.Len() > maxChars && len(p.History) > 0 {
		p.History = p.History[1:]
	}
	if maxChars > 0 && p.Len() > maxChars {
		p.User = truncateBytes(p.User, len(p.User)-(p.Len()-maxChars))
	}
	return p
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
