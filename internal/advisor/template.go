package advisor

import (
	"fmt"
	"strings"
)

const reassurance = "Most crop problems can be brought under control when they are treated early. " +
	"If symptoms keep spreading, take photos and a sample to your local agricultural extension office before using chemicals widely."

var severityGuidance = map[string]string{
	"high":   "Act quickly to stop it spreading to nearby plants.",
	"medium": "Treat soon and check the affected plants every few days.",
	"low":    "Early treatment should keep it under control.",
}

// TemplateAdvice builds the deterministic answer used whenever generation
// is not possible. It never returns an empty string.
func TemplateAdvice(query string, diag *DiagnosisContext) string {
	var sb strings.Builder

	if diag == nil {
		sb.WriteString("I can't reach the advisory service right now, so here is some general guidance")
		if q := strings.TrimSpace(query); q != "" {
			fmt.Fprintf(&sb, " for \"%s\"", q)
		}
		sb.WriteString(": inspect your crop closely, remove badly affected leaves or plants, and avoid overwatering while you investigate.\n\n")
		sb.WriteString(reassurance)
		return sb.String()
	}

	severity := strings.ToLower(strings.TrimSpace(diag.Severity))
	fmt.Fprintf(&sb, "Your %s shows signs of %s (%.0f%% confidence). ", diag.Crop, diag.DiseaseName, diag.ConfidencePercent())
	fmt.Fprintf(&sb, "Severity is %s.", severity)
	if g, ok := severityGuidance[severity]; ok {
		sb.WriteString(" ")
		sb.WriteString(g)
	}
	sb.WriteString("\n")

	if t, ok := diag.FirstTreatment(TreatmentOrganic); ok {
		fmt.Fprintf(&sb, "\nOrganic option: %s", t.Name)
	}
	if t, ok := diag.FirstTreatment(TreatmentChemical); ok {
		fmt.Fprintf(&sb, "\nChemical option: %s (follow the label and wear protective gear)", t.Name)
	}

	sb.WriteString("\n\n")
	sb.WriteString(reassurance)
	return sb.String()
}
