// Package export renders completed analyses into shareable documents.
package export

import (
	"context"
	"io"

	"github.com/scicheckagent/scicheck/internal/model"
)

// Record is one claim's full verification state, assembled for export.
type Record struct {
	Ordinal         int
	ClaimText       string
	ModelVerdict    *model.ModelVerdict
	ExternalVerdict *model.ExternalVerdict
	Reports         []model.Report
}

// Document is a complete export payload.
type Document struct {
	AnalysisID string
	Mode       model.Mode
	Records    []Record
}

// Exporter renders a document to a writer. Implementations own the format.
type Exporter interface {
	// ContentType returns the MIME type of the rendered output.
	ContentType() string
	// Export renders the document.
	Export(ctx context.Context, w io.Writer, doc Document) error
}
