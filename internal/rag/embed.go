package rag

import (
	"strings"

	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
)

// EmbeddingInput builds the text sent to the embedding model for a chunk.
// Prefixing the section title keeps heading context attached to short
// chunks that would otherwise embed poorly.
func EmbeddingInput(row *contenttypes.BookContent) string {
	if row == nil {
		return ""
	}
	title := strings.TrimSpace(row.SectionTitle)
	if title == "" {
		return row.ContentText
	}
	return title + "\n\n" + row.ContentText
}
