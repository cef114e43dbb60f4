package rag

import (
	"testing"

	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
)

func TestEmbeddingInputPrefixesSectionTitle(t *testing.T) {
	row := &contenttypes.BookContent{SectionTitle: "Interrupts", ContentText: "An ISR runs with interrupts masked."}
	got := EmbeddingInput(row)
	want := "Interrupts\n\nAn ISR runs with interrupts masked."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	row.SectionTitle = "  "
	if got := EmbeddingInput(row); got != row.ContentText {
		t.Fatalf("got %q, want bare content", got)
	}
	if got := EmbeddingInput(nil); got != "" {
		t.Fatalf("got %q for nil row", got)
	}
}
