package extract

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFReader pulls page text out of an uploaded PDF receipt so it can be
// fed through the text-mode extractor. Scanned PDFs with no text layer
// yield an empty string; OCR happens upstream.
type PDFReader struct {
	logger *zap.Logger
}

// NewPDFReader creates a PDF text reader.
func NewPDFReader(logger *zap.Logger) *PDFReader {
	return &PDFReader{logger: logger}
}

// Text concatenates the text of every page in the document.
func (r *PDFReader) Text(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", n, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	r.logger.Debug("pdf text extracted",
		zap.String("path", path),
		zap.Int("pages", doc.NumPage()),
		zap.Int("bytes", b.Len()))

	return b.String(), nil
}
