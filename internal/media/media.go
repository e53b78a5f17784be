// Package media extracts analyzable text from uploaded images and videos,
// caching extractions by file content.
package media

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/scicheckagent/scicheck/internal/hash"
	"github.com/scicheckagent/scicheck/internal/model"
	"github.com/scicheckagent/scicheck/internal/store"
)

// Extractor turns raw media bytes into text. Implementations wrap an OCR
// engine or a multimodal model; the service itself does not care which.
type Extractor interface {
	ExtractText(ctx context.Context, kind model.MediaKind, data []byte) (string, error)
}

// Service caches extraction results keyed by file content, so re-uploading
// the same bytes never re-runs the extractor.
type Service struct {
	extractor Extractor
	store     *store.Store
	logger    *zap.Logger
}

// NewService returns a Service. A nil logger falls back to a no-op logger.
func NewService(extractor Extractor, st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{extractor: extractor, store: st, logger: logger}
}

// Process returns the extracted text for the given media bytes, running the
// extractor only on a cache miss.
func (s *Service) Process(ctx context.Context, kind model.MediaKind, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("media: empty input")
	}
	fileHash := hash.Bytes(data)

	cached, err := s.store.GetMedia(ctx, fileHash)
	if err != nil {
		return "", err
	}
	if cached != nil {
		s.logger.Debug("media cache hit", zap.String("file_hash", fileHash))
		return cached.Text, nil
	}

	text, err := s.extractor.ExtractText(ctx, kind, data)
	if err != nil {
		return "", fmt.Errorf("extract %s text: %w", kind, err)
	}

	err = s.store.PutMedia(ctx, model.MediaEntry{
		FileHash: fileHash,
		Kind:     kind,
		Text:     text,
	})
	if err != nil {
		return "", fmt.Errorf("cache media extraction: %w", err)
	}
	return text, nil
}
