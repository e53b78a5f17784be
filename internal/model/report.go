package model

import "time"

// Report is a long-form research answer to a (claim, question) pair, keyed by
// the pair's content hashes. A report row only exists once a stream completed
// with non-empty content; a failed stream leaves no row and is retryable.
type Report struct {
	ClaimHash    string    `json:"claim_hash"`
	QuestionHash string    `json:"question_hash"`
	Question     string    `json:"question"`
	Text         string    `json:"report"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MediaKind classifies uploaded media for the extraction cache.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaEntry caches text extracted from uploaded media, keyed by the file
// content hash so identical bytes never re-run OCR or transcription.
type MediaEntry struct {
	FileHash  string    `json:"file_hash"`
	Kind      MediaKind `json:"media_type"`
	Text      string    `json:"extracted_text"`
	CreatedAt time.Time `json:"created_at"`
}
