package model

import "time"

// Verdict is a categorical judgment about a claim's support.
type Verdict string

const (
	VerdictVerified           Verdict = "VERIFIED"
	VerdictPartiallySupported Verdict = "PARTIALLY_SUPPORTED"
	VerdictInconclusive       Verdict = "INCONCLUSIVE"
	VerdictContradicted       Verdict = "CONTRADICTED"
	VerdictSupported          Verdict = "SUPPORTED"
	VerdictNotSupported       Verdict = "NOT_SUPPORTED"
	VerdictFeasible           Verdict = "FEASIBLE"
	VerdictPossibleUnproven   Verdict = "POSSIBLE_BUT_UNPROVEN"
	VerdictUnlikely           Verdict = "UNLIKELY"
	VerdictNonsense           Verdict = "NONSENSE"
)

// modeVocabulary restricts the verdicts a given mode may request. The union
// covers everything above; a mode only ever asks for its own subset.
var modeVocabulary = map[Mode][]Verdict{
	ModeGeneral: {
		VerdictVerified, VerdictPartiallySupported, VerdictInconclusive,
		VerdictContradicted, VerdictNonsense,
	},
	ModeScientific: {
		VerdictVerified, VerdictSupported, VerdictPartiallySupported,
		VerdictNotSupported, VerdictInconclusive, VerdictContradicted,
	},
	ModeTechnology: {
		VerdictFeasible, VerdictPossibleUnproven, VerdictUnlikely,
		VerdictInconclusive, VerdictNonsense,
	},
}

// Vocabulary returns the legal verdict values for a mode. Unknown modes fall
// back to the general vocabulary.
func (m Mode) Vocabulary() []Verdict {
	if v, ok := modeVocabulary[m]; ok {
		return v
	}
	return modeVocabulary[ModeGeneral]
}

// ModelVerdict is the model-generated judgment for one claim, keyed by the
// claim's content hash and shared across every analysis containing that claim.
type ModelVerdict struct {
	ClaimHash     string    `json:"claim_hash"`
	Verdict       string    `json:"verdict"` // verdict value, or an explanatory error string when degraded
	Justification string    `json:"justification,omitempty"`
	Sources       []string  `json:"sources,omitempty"`  // 0-2 URLs
	Keywords      []string  `json:"keywords,omitempty"` // 3-5 search terms
	Questions     []string  `json:"questions,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Source is one literature search result from an external provider.
type Source struct {
	Title         string `json:"title"`
	Abstract      string `json:"abstract,omitempty"`
	URL           string `json:"url,omitempty"`
	Authors       string `json:"authors,omitempty"`
	Year          int    `json:"year,omitempty"`
	CitationCount int    `json:"citation_count,omitempty"`
	Provider      string `json:"source"`
}

// ExternalVerdict is the literature-grounded judgment for one claim, keyed by
// claim hash. Sources are deduplicated by URL in provider-priority order.
type ExternalVerdict struct {
	ClaimHash string    `json:"claim_hash"`
	Verdict   string    `json:"verdict"`
	Sources   []Source  `json:"sources"`
	UpdatedAt time.Time `json:"updated_at"`
}
