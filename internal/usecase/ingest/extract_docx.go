package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/civicassist/civicassist/internal/domain"
)

// extractDOCX extracts paragraph text from a DOCX file. A .docx is a zip
// archive; the document body lives in word/document.xml with visible text
// inside <w:t> elements and paragraph boundaries at </w:p>.
func extractDOCX(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: open docx %s: %w", domain.ErrExtraction, path, err)
	}
	defer archive.Close()

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			document = f
			break
		}
	}
	if document == nil {
		return "", fmt.Errorf("%w: %s has no word/document.xml", domain.ErrExtraction, path)
	}

	reader, err := document.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open document.xml: %w", domain.ErrExtraction, err)
	}
	defer reader.Close()

	text, err := docxBodyText(reader)
	if err != nil {
		return "", fmt.Errorf("%w: parse document.xml in %s: %w", domain.ErrExtraction, path, err)
	}
	return text, nil
}

func docxBodyText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var builder strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch tok.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(tok)
			}
		}
	}
	return strings.TrimSpace(builder.String()), nil
}
