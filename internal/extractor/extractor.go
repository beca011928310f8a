// Package extractor turns uploaded resume documents into plain text.
package extractor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrExtractionFailed indicates the document bytes could not be turned into
// text. Retrying the same bytes will not help; callers should skip the
// document rather than fail the whole run.
var ErrExtractionFailed = errors.New("document text extraction failed")

// Extractor extracts plain text from a resume document.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, fileName string) (string, error)
}

// contentTypeFor maps a file name to the MIME type sent to the extraction
// backend. Unknown extensions are treated as binary and left for the backend
// to sniff.
func contentTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// isPDF reports whether the file looks like a PDF by extension or magic bytes.
func isPDF(data []byte, fileName string) bool {
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		return true
	}
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
