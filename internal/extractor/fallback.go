// internal/extractor/fallback.go
package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"talentmatch-workers/internal/common/logger"
)

// FallbackExtractor tries each backend in order and returns the first
// non-empty result. Plain text files short-circuit without touching any
// backend.
type FallbackExtractor struct {
	backends []Extractor
	logger   logger.Logger
}

func NewFallbackExtractor(log logger.Logger, backends ...Extractor) *FallbackExtractor {
	return &FallbackExtractor{backends: backends, logger: log}
}

func (e *FallbackExtractor) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	if contentTypeFor(fileName) == "text/plain" && utf8.Valid(data) {
		return string(data), nil
	}

	var lastErr error
	for _, backend := range e.backends {
		text, err := backend.ExtractText(ctx, data, fileName)
		if err != nil {
			lastErr = err
			e.logger.Warn("extraction backend failed, trying next", map[string]interface{}{
				"fileName": fileName,
				"error":    err.Error(),
			})
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
		lastErr = ErrExtractionFailed
	}

	if lastErr == nil {
		lastErr = ErrExtractionFailed
	}
	return "", lastErr
}
