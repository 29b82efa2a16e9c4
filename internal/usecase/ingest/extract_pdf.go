package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/civicassist/civicassist/internal/domain"
)

// extractPDF extracts text from a PDF using pdfcpu. Page content is
// extracted to a scratch directory and concatenated in page order.
func extractPDF(path string) (string, error) {
	if _, err := api.ReadContextFile(path); err != nil {
		return "", fmt.Errorf("%w: read pdf %s: %w", domain.ErrExtraction, path, err)
	}

	outDir, err := os.MkdirTemp("", "civicassist-pdf-*")
	if err != nil {
		return "", fmt.Errorf("%w: scratch dir: %w", domain.ErrExtraction, err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("%w: extract pdf content %s: %w", domain.ErrExtraction, path, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", fmt.Errorf("%w: read scratch dir: %w", domain.ErrExtraction, err)
	}

	type page struct {
		num  int
		text string
	}
	var pages []page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(entry.Name(), "page_%d", &pageNum); err != nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		pages = append(pages, page{num: pageNum, text: string(content)})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].num < pages[j].num })

	var builder strings.Builder
	for _, p := range pages {
		builder.WriteString(p.text)
		builder.WriteString("\n")
	}
	return strings.TrimSpace(builder.String()), nil
}
