// internal/extractor/tika.go
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	httpclient "talentmatch-workers/internal/common/http"
	"talentmatch-workers/internal/common/logger"
)

// TikaExtractor extracts text by sending document bytes to an Apache Tika
// server. Tika handles PDF, DOCX and most other document formats, so it is
// the primary backend.
type TikaExtractor struct {
	serverURL string
	client    *httpclient.Client
	logger    logger.Logger
}

func NewTikaExtractor(serverURL string, timeout time.Duration, log logger.Logger) *TikaExtractor {
	return &TikaExtractor{
		serverURL: serverURL,
		client:    httpclient.NewClient(timeout),
		logger:    log,
	}
}

// ExtractText sends the document to the Tika server and returns the plain
// text response.
func (e *TikaExtractor) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	start := time.Now()

	url := fmt.Sprintf("%s/tika", e.serverURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build tika request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeFor(fileName))
	req.Header.Set("Accept", "text/plain")
	if fileName != "" {
		req.Header.Set("X-Tika-Resource-Name", fileName)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tika request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: tika server returned status %d", ErrExtractionFailed, resp.StatusCode)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read tika response: %w", err)
	}

	e.logger.Debug("tika extraction complete", map[string]interface{}{
		"fileName":   fileName,
		"textLength": len(textBytes),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return string(textBytes), nil
}
