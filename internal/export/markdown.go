package export

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// MarkdownExporter renders an analysis as a Markdown document.
type MarkdownExporter struct {
	// Now is overridable for deterministic output in tests.
	Now func() time.Time
}

func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{Now: time.Now}
}

func (e *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }

func (e *MarkdownExporter) Export(ctx context.Context, w io.Writer, doc Document) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Claim Verification Report\n\n")
	fmt.Fprintf(&b, "- **Analysis:** %s\n", doc.AnalysisID)
	fmt.Fprintf(&b, "- **Mode:** %s\n", doc.Mode)
	fmt.Fprintf(&b, "- **Generated:** %s\n", e.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Claims:** %d\n\n", len(doc.Records))

	for _, rec := range doc.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(&b, "---\n\n## Claim %d\n\n", rec.Ordinal+1)
		fmt.Fprintf(&b, "> %s\n\n", rec.ClaimText)

		if mv := rec.ModelVerdict; mv != nil {
			fmt.Fprintf(&b, "### AI Verdict\n\n**%s**: %s\n\n", mv.Verdict, mv.Justification)
			if len(mv.Sources) > 0 {
				b.WriteString("Sources:\n\n")
				for _, u := range mv.Sources {
					fmt.Fprintf(&b, "- <%s>\n", u)
				}
				b.WriteString("\n")
			}
			if len(mv.Keywords) > 0 {
				fmt.Fprintf(&b, "Keywords: %s\n\n", strings.Join(mv.Keywords, ", "))
			}
		} else {
			b.WriteString("### AI Verdict\n\n_Not yet generated._\n\n")
		}

		if ev := rec.ExternalVerdict; ev != nil {
			fmt.Fprintf(&b, "### External Verification\n\n%s\n\n", ev.Verdict)
			if len(ev.Sources) > 0 {
				b.WriteString("| Title | Year | Citations | Provider |\n")
				b.WriteString("|---|---|---|---|\n")
				for _, src := range ev.Sources {
					title := src.Title
					if src.URL != "" {
						title = fmt.Sprintf("[%s](%s)", escapePipes(src.Title), src.URL)
					} else {
						title = escapePipes(title)
					}
					fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", title, src.Year, src.CitationCount, src.Provider)
				}
				b.WriteString("\n")
			}
		}

		for _, rep := range rec.Reports {
			fmt.Fprintf(&b, "### Report: %s\n\n%s\n\n", escapePipes(rep.Question), rep.Text)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// escapePipes keeps titles from breaking Markdown table rows.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
