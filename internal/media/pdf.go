package media

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFToText extracts plain text from a PDF file, page by page. Pages that
// fail to parse are skipped; the extraction fails only when the file cannot
// be opened or no page yields any text.
func (f *FFmpegTools) PDFToText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", path, err)
	}
	return PDFBytesToText(content)
}

// PDFBytesToText extracts plain text from in-memory PDF bytes.
func PDFBytesToText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages fail to parse; keep going with the rest.
			continue
		}

		if text != "" {
			if textBuilder.Len() > 0 {
				textBuilder.WriteString("\n\n")
			}
			textBuilder.WriteString(text)
		}
	}

	extracted := textBuilder.String()
	if extracted == "" {
		return "", fmt.Errorf("no text content extracted from PDF with %d pages (image-based PDF?)", numPages)
	}
	return extracted, nil
}
