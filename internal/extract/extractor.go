// Package extract provides text extraction from knowledge base files.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file extensions the knowledge base does not
// accept. Ingestion treats it as skip-and-continue.
var ErrUnsupported = errors.New("unsupported file type")

// Extractor extracts plain text from knowledge base source files.
// Supported formats are PDF (.pdf, page-wise) and plain text (.txt).
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Returns ErrUnsupported for extensions other than .pdf and .txt.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" && ext != ".txt" {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".txt":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}
