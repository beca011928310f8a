// internal/extractor/pdf.go
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"talentmatch-workers/internal/common/logger"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
)

// PDFExtractor extracts text from PDF bytes in-process. Used as a fallback
// when the Tika server is unreachable; it only understands PDF.
type PDFExtractor struct {
	parser *pdf.PDFParser
	logger logger.Logger
}

func NewPDFExtractor(ctx context.Context, log logger.Logger) (*PDFExtractor, error) {
	// ToPages false: the whole document as one continuous string
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}

	return &PDFExtractor{parser: p, logger: log}, nil
}

func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	if !isPDF(data, fileName) {
		return "", fmt.Errorf("%w: %q is not a PDF", ErrExtractionFailed, fileName)
	}

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoparser.WithURI(fileName),
	)
	if err != nil {
		return "", fmt.Errorf("%w: pdf parse: %v", ErrExtractionFailed, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("%w: pdf parser returned no documents for %q", ErrExtractionFailed, fileName)
	}

	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.Content)
	}

	e.logger.Debug("pdf extraction complete", map[string]interface{}{
		"fileName":   fileName,
		"textLength": sb.Len(),
	})

	return sb.String(), nil
}
