package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/civicassist/civicassist/internal/domain"
)

// supportedExtensions are the document formats the pipeline accepts.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// IsSupportedFormat reports whether the file name has an ingestable extension.
func IsSupportedFormat(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// ExtractText extracts plain text from a document, dispatching on the
// file extension. Unknown extensions fail with ErrUnsupportedFormat;
// parser failures are wrapped with ErrExtraction.
func ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".txt":
		return extractTXT(path)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}
	return strings.TrimSpace(string(data)), nil
}
