package model

import "time"

// Mode selects the extraction policy for an analysis. Each mode has its own
// prompt templates and restricts the legal verdict vocabulary.
type Mode string

const (
	ModeGeneral    Mode = "general"    // General analysis of testable claims
	ModeScientific Mode = "scientific" // Specific focus on scientific claims
	ModeTechnology Mode = "technology" // Technology-focused extraction
)

// Modes lists all supported extraction modes.
func Modes() []Mode {
	return []Mode{ModeGeneral, ModeScientific, ModeTechnology}
}

// Valid reports whether m is a known extraction mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeGeneral, ModeScientific, ModeTechnology:
		return true
	}
	return false
}

// Analysis represents one text submission and owns an ordered list of claims.
// Analyses are destroyed by the retention sweep, never by explicit delete.
type Analysis struct {
	ID           string    `json:"analysis_id"`
	Mode         Mode      `json:"mode"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Claim is a single explicit statement extracted from submitted text.
// Hash is the content hash of the normalized claim text and is stable across
// analyses: two submissions that extract the same wording share all downstream
// cache entries. Claims are immutable after extraction.
type Claim struct {
	AnalysisID string `json:"analysis_id"`
	Ordinal    int    `json:"ordinal"` // zero-based position within the analysis
	Text       string `json:"text"`    // verbatim extracted string
	Hash       string `json:"hash"`
}
