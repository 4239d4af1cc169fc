package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/remedyhq/remedy/pkg/domain"
)

// NewRenderer returns a function that renders markdown for the terminal.
// Rendering failures fall back to the raw markdown.
func NewRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(md string) string { return md }
	}
	return func(md string) string {
		out, err := r.Render(md)
		if err != nil {
			return md
		}
		return out
	}
}

// ReportMarkdown flattens the incident report into a markdown document.
func ReportMarkdown(report *domain.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Title)
	if report.Degraded {
		b.WriteString("> **Degraded report**: some stages did not complete; details below may be partial.\n\n")
	}
	fmt.Fprintf(&b, "%s\n\n", report.Summary)

	for _, s := range report.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Body)
	}

	if len(report.Timeline) > 0 {
		b.WriteString("## Timeline\n\n")
		for _, e := range report.Timeline {
			fmt.Fprintf(&b, "- `%s` %s\n", e.Time.Format("15:04:05"), e.Event)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\nIncident %s, generated %s\n",
		report.IncidentID, report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	return b.String()
}

// PromptMarkdown formats the open questions of a suspension prompt.
func PromptMarkdown(w *domain.Prompt) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s**\n\n", w.Query)
	for _, req := range w.Requests {
		fmt.Fprintf(&b, "- %s\n", req.Query)
	}
	return b.String()
}
