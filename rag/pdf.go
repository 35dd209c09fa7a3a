package rag

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// extractPDFText returns the plain text of every readable page, each prefixed
// with a page marker.
func extractPDFText(logger *zap.Logger, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var fullText strings.Builder
	totalPages := r.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			logger.Warn("Skipping null page", zap.String("path", path), zap.Int("page", pageNum))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Failed to extract text from page",
				zap.String("path", path),
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		fmt.Fprintf(&fullText, "--- Page %d ---\n", pageNum)
		fullText.WriteString(text)
		fullText.WriteString("\n\n")
	}

	logger.Debug("PDF text extraction completed",
		zap.String("path", path),
		zap.Int("pages", totalPages),
		zap.Int("characters", fullText.Len()))

	return fullText.String(), nil
}
