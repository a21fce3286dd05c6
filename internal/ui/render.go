package ui

import (
	"fmt"
	"strings"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/engine"
)

// RenderAsk formats an ask response: the top answer in a panel, the
// remaining matches as a compact list.
func RenderAsk(resp engine.AskResponse) string {
	if len(resp.Results) == 0 {
		return StyleWarning.Render("No results.")
	}

	var b strings.Builder
	top := resp.Results[0]
	if top.IsFallback {
		b.WriteString(Panel("No confident match", top.Answer, ColorWarning))
		b.WriteString("\n")
		return b.String()
	}

	title := fmt.Sprintf("#1  %s", top.MatchedQuestion)
	b.WriteString(Panel(title, top.Answer, ColorPrimary))
	b.WriteString("\n")
	b.WriteString(StyleSubtle.Render(fmt.Sprintf("entry %s  score %s", top.EntryID, StyleScore.Render(fmt.Sprintf("%.3f", top.Score)))))
	b.WriteString("\n")

	if len(resp.Results) > 1 {
		b.WriteString("\n")
		b.WriteString(StyleTitle.Render("Other matches"))
		b.WriteString("\n")
		for _, r := range resp.Results[1:] {
			fmt.Fprintf(&b, "  %d. %s %s\n", r.Rank, r.MatchedQuestion, StyleScore.Render(fmt.Sprintf("(%.3f)", r.Score)))
		}
	}
	if resp.Cached {
		b.WriteString(StyleSubtle.Render("(cached)"))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderAdvice formats an advisor response.
func RenderAdvice(a advisor.Advice) string {
	title := "Advice"
	border := ColorPrimary
	if a.Source == advisor.SourceTemplate {
		title = "Advice (offline)"
		border = ColorSecondary
	}
	return Panel(title, a.Advice, border) + "\n"
}

// RenderGreeting formats a greeting.
func RenderGreeting(g engine.GreetingResponse) string {
	return StyleHeader.Render(g.Greeting) + "\n"
}

// RenderStatus formats the engine status for operators.
func RenderStatus(st engine.Status) string {
	var b strings.Builder
	if st.Ready && st.Snapshot != nil {
		b.WriteString(StyleSuccess.Render("✓ knowledge base loaded"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  snapshot   v%d (%s)\n", st.Snapshot.Version, st.Snapshot.ID)
		fmt.Fprintf(&b, "  entries    %d\n", st.Snapshot.Entries)
		if st.Snapshot.Dimension > 0 {
			fmt.Fprintf(&b, "  embeddings %d dims\n", st.Snapshot.Dimension)
		} else {
			b.WriteString("  embeddings none, keyword ranking only\n")
		}
	} else {
		b.WriteString(StyleError.Render("✗ no knowledge base loaded"))
		b.WriteString("\n")
	}
	if st.Source != "" {
		fmt.Fprintf(&b, "  source     %s\n", st.Source)
	}
	fmt.Fprintf(&b, "  tuning     alpha=%.2f min_confidence=%.2f top_k_max=%d\n",
		st.Tuning.Alpha, st.Tuning.MinConfidence, st.Tuning.TopKMax)
	b.WriteString(StyleSubtle.Render(fmt.Sprintf("  generator breaker %s", st.Generator)))
	b.WriteString("\n")
	return b.String()
}
