package prompts

import (
	"fmt"
	"strings"

	"github.com/fosterfinance/deal-assistant/pkg/models"
)

// genericGuidance stands in for the reference table when no historic row
// shares a term with the new deal.
const genericGuidance = `No historic deal shares terms with this scenario.
Apply general credit logic instead: state the client's borrowing need and credit priority,
their financial objective, the product features that serve it, and why the product fits.`

const formattingInstructions = `INSTRUCTIONS:
1. **Structure:** Output a numbered list (1, 2, 3) followed by a separate paragraph for the 4th point.
2. **Tone:** Mimic the sentence structure of the Reference Database exactly.
3. **Constraint:** Do NOT use bold headers (e.g., NO "**Requirement:**"). Just start the sentence.

SPECIFIC MAPPING INSTRUCTIONS:
* **Bullet 1 (Requirements):** Mimic the Reference Database sentence structure, BUT add 10-15% more detail by explicitly stating the likely credit priority (e.g., "prioritising competitive rates" or "maximum borrowing") if not already stated.
* **Bullet 2 (Objectives):** Strictly mimic the 'Client Objectives' column style.
* **Bullet 3 (Features):** Strictly mimic the 'Product Features' column style.
* **Point 4 (Selection):** Strictly mimic the 'Why this Product was Selected' column logic.

Generate strict Markdown output.`

// BuildProposalPrompt assembles the generation prompt from the analyst's
// deal description and the selected reference rows.
func BuildProposalPrompt(query string, set *models.ContextSet) string {
	var prompt strings.Builder

	prompt.WriteString("Role: Senior Credit Analyst at Foster Finance.\n")
	prompt.WriteString("Task: Write a deal summary ADAPTING the style of the Reference Database to the User's new scenario.\n\n")

	prompt.WriteString("USER INPUT (New Deal Details):\n")
	prompt.WriteString("\"" + strings.TrimSpace(query) + "\"\n\n")

	prompt.WriteString(fmt.Sprintf("REFERENCE DATABASE (%s):\n", set.Label()))
	if set.NoMatch() {
		prompt.WriteString(genericGuidance)
		prompt.WriteString("\n\n")
		if set.Len() > 0 {
			prompt.WriteString("Use these rows for tone only:\n")
			prompt.WriteString(RenderContextTable(set))
			prompt.WriteString("\n")
		}
	} else {
		prompt.WriteString(RenderContextTable(set))
		prompt.WriteString("\n")
	}

	prompt.WriteString(formattingInstructions)
	prompt.WriteString("\n")

	return prompt.String()
}

// RenderContextTable renders the required columns of the selected rows as
// a markdown table. Extra columns are scored but not shown.
func RenderContextTable(set *models.ContextSet) string {
	var b strings.Builder

	b.WriteString("|")
	for _, col := range models.RequiredColumns {
		b.WriteString(" " + col + " |")
	}
	b.WriteString("\n|")
	for range models.RequiredColumns {
		b.WriteString(":---|")
	}
	b.WriteString("\n")

	if set == nil {
		return b.String()
	}
	for _, c := range set.Candidates {
		b.WriteString("|")
		for _, col := range models.RequiredColumns {
			b.WriteString(" " + escapeCell(c.Record.Value(col)) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var cellReplacer = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "<br>",
)

func escapeCell(s string) string {
	return cellReplacer.Replace(strings.TrimSpace(s))
}
