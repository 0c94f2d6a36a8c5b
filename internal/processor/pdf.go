package processor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\r]+`)
	paragraphSepRe    = regexp.MustCompile(`\n\s*\n+`)
	pageFooterRe      = regexp.MustCompile(`(?m)^\s*(Page\s+)?\d+\s*(of\s+\d+)?\s*$`)
)

// ExtractPDFText extracts the plain text of a PDF setup guide
func ExtractPDFText(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	_, err = buf.ReadFrom(b)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}

	return cleanPDFText(buf.String()), nil
}

// cleanPDFText drops bare page numbers and normalizes whitespace
func cleanPDFText(text string) string {
	text = pageFooterRe.ReplaceAllString(text, "")
	return normalizeWhitespace(text)
}

// normalizeWhitespace collapses runs of spaces while keeping paragraph breaks
func normalizeWhitespace(text string) string {
	text = horizontalSpaceRe.ReplaceAllString(text, " ")
	text = paragraphSepRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
