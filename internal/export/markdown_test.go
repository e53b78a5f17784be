package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/scicheckagent/scicheck/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func TestMarkdownExport(t *testing.T) {
	doc := Document{
		AnalysisID: "abc-123",
		Mode:       model.ModeScientific,
		Records: []Record{
			{
				Ordinal:   0,
				ClaimText: "The Earth's inner core is hotter than the surface of the Sun.",
				ModelVerdict: &model.ModelVerdict{
					Verdict:       "VERIFIED",
					Justification: "Established by seismological models.",
					Keywords:      []string{"earth", "core"},
				},
				ExternalVerdict: &model.ExternalVerdict{
					Verdict: "SUPPORTED by the retrieved literature.",
					Sources: []model.Source{
						{Title: "Core Temperatures | A Review", URL: "https://example.org/core", Year: 2020, CitationCount: 42, Provider: "Crossref"},
					},
				},
				Reports: []model.Report{
					{Question: "How is core temperature measured?", Text: "## 1. Introduction\nSeismic waves..."},
				},
			},
			{
				Ordinal:   1,
				ClaimText: "A second claim without any verdicts yet.",
			},
		},
	}

	e := NewMarkdownExporter()
	e.Now = fixedNow
	var out strings.Builder
	if err := e.Export(context.Background(), &out, doc); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	md := out.String()

	for _, want := range []string{
		"# Claim Verification Report",
		"- **Analysis:** abc-123",
		"- **Mode:** scientific",
		"- **Generated:** 2026-01-15T12:00:00Z",
		"## Claim 1",
		"**VERIFIED**: Established by seismological models.",
		"Keywords: earth, core",
		"[Core Temperatures \\| A Review](https://example.org/core)",
		"| 2020 | 42 | Crossref |",
		"### Report: How is core temperature measured?",
		"## Claim 2",
		"_Not yet generated._",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
}

func TestMarkdownExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewMarkdownExporter()
	var out strings.Builder
	err := e.Export(ctx, &out, Document{Records: []Record{{ClaimText: "x"}}})
	if err == nil {
		t.Error("Expected context error")
	}
}

func TestMarkdownContentType(t *testing.T) {
	if ct := NewMarkdownExporter().ContentType(); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Unexpected content type %q", ct)
	}
}
