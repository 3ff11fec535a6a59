package docs

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text content of a PDF file on disk.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", err
	}

	return strings.TrimSpace(buf.String()), nil
}
