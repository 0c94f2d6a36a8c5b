package advisor

import (
	"fmt"
	"strings"
	"text/template"
)

const setupTemplate = `
You are an iRacing Dirt Midget setup engineer with professional-level expertise in tuning and driving these cars.

Your task is to give *only short, numerical, and specific setup adjustments* that match the driver’s question.
You may only use parameters explicitly listed in the setup documentation below — **no exceptions**.
If a parameter or concept (e.g. gas pressure, CG height, right-side offset) is not listed, you must not reference it.

Follow these strict output rules:
- Exactly 1 to 3 bullet points maximum
- Each bullet must include: the corner (e.g. RF, LR), the part (e.g. spring, shock, torsion bar), and the precise numerical adjustment amount (e.g. “Add 10 lbs to RR spring”)
- Every change must be quantitative (include a number and unit or clicks)
- No phrases like “increase,” “reduce,” “consider,” or “potentially”
- No explanations, context, or summaries — just the adjustments
- Do not reference any parameters outside the setup documentation

Setup documentation (allowed parameters only):
---
{{.Context}}
---

Telemetry summary:
---
{{.Telemetry}}
---

Driver question:
"{{.Question}}"

Respond with only 1–3 bullet points formatted exactly like this example:

- Add 0.5 rebound clicks to LR shock
- Soften RR spring by 10 lbs
- Increase stagger by 0.25 inches
`

var promptTemplate = template.Must(template.New("setup").Option("missingkey=error").Parse(setupTemplate))

// PromptData is substituted verbatim into the prompt
type PromptData struct {
	Context   string
	Telemetry string
	Question  string
}

// RenderPrompt fills the setup-engineer prompt
func RenderPrompt(data PromptData) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}

// correctionPrompt asks the model to redo an answer that broke the output rules
func correctionPrompt(prompt, previous string, violations []string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\nYour previous answer was:\n---\n")
	b.WriteString(strings.TrimSpace(previous))
	b.WriteString("\n---\n\nIt broke these output rules:\n")
	for _, v := range violations {
		b.WriteString("- ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	b.WriteString("\nRespond again with only 1–3 bullet points that follow every rule.\n")
	return b.String()
}
