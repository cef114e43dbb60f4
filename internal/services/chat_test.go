package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	chattypes "github.com/bookbridge/bookbridge-backend/internal/domain/chat"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	usertypes "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/rag"
)

type fakeRetriever struct {
	results []*rag.Result
}

func (f *fakeRetriever) SemanticSearch(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*rag.Result, error) {
	return f.results, nil
}

func (f *fakeRetriever) KeywordSearch(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*rag.Result, error) {
	return f.results, nil
}

func (f *fakeRetriever) HybridSearch(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*rag.Result, error) {
	return f.results, nil
}

func (f *fakeRetriever) SearchWithRerank(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*rag.Result, error) {
	return f.results, nil
}

func TestStartSessionValidation(t *testing.T) {
	cs := &chatService{log: testLogger(t).With("service", "ChatService")}

	if _, err := cs.StartSession(context.Background(), uuid.New(), uuid.New(), "bogus", ""); err == nil {
		t.Fatal("expected unknown mode error")
	}
	if _, err := cs.StartSession(context.Background(), uuid.New(), uuid.New(), chattypes.ModeSelectedText, "   "); err == nil {
		t.Fatal("expected missing selection error")
	}
}

func TestGatherContextFullBookUsesRetriever(t *testing.T) {
	bookID := uuid.New()
	chunk := &contenttypes.BookContent{ID: uuid.New(), BookID: bookID, ContentText: "Interrupts preempt the main loop."}
	cs := &chatService{
		log:       testLogger(t).With("service", "ChatService"),
		retriever: &fakeRetriever{results: []*rag.Result{{Content: chunk, RerankedScore: 0.8}}},
	}
	session := &chattypes.ChatSession{BookID: bookID, Mode: chattypes.ModeFullBook}

	frags, err := cs.gatherContext(context.Background(), session, "what preempts the main loop?")
	if err != nil {
		t.Fatalf("gatherContext: %v", err)
	}
	if len(frags) != 1 || frags[0].Content.ID != chunk.ID {
		t.Fatalf("got %d fragments, want the retrieved chunk", len(frags))
	}
	if frags[0].RelevanceScore != 0.8 {
		t.Fatalf("relevance = %v, want reranked score", frags[0].RelevanceScore)
	}
}

func TestGatherContextSelectedTextPinsToSelection(t *testing.T) {
	bookID := uuid.New()
	target := &contenttypes.BookContent{
		ID: uuid.New(), BookID: bookID, Chapter: 1, ChunkIndex: 5,
		ContentText: "A mutex guards shared state between goroutines.",
	}
	neighbor := &contenttypes.BookContent{
		ID: uuid.New(), BookID: bookID, Chapter: 1, ChunkIndex: 6,
		ContentText: "Channels are an alternative to locks.",
	}
	cs := &chatService{
		log:         testLogger(t).With("service", "ChatService"),
		contentRepo: newFakeContentRepo(target, neighbor),
	}
	session := &chattypes.ChatSession{
		BookID:       bookID,
		Mode:         chattypes.ModeSelectedText,
		SelectedText: "mutex guards shared state",
	}

	frags, err := cs.gatherContext(context.Background(), session, "why a mutex?")
	if err != nil {
		t.Fatalf("gatherContext: %v", err)
	}
	if len(frags) == 0 {
		t.Fatal("expected fragments")
	}
	foundTarget := false
	for _, frag := range frags {
		if frag.Content.ID == target.ID && frag.IsTarget {
			foundTarget = true
		}
	}
	if !foundTarget {
		t.Fatal("selection chunk missing or not marked as target")
	}
}

func TestPromptsIncludeContextAndBackground(t *testing.T) {
	cs := &chatService{log: testLogger(t).With("service", "ChatService")}
	session := &chattypes.ChatSession{Mode: chattypes.ModeSelectedText}
	user := &usertypes.User{
		SoftwareBackground: "10 years of Python",
		PreferredLanguage:  "de",
	}

	system := cs.systemPrompt(session, user)
	if !strings.Contains(system, "10 years of Python") {
		t.Fatal("system prompt missing software background")
	}
	if !strings.Contains(system, `"de"`) {
		t.Fatal("system prompt missing language instruction")
	}
	if !strings.Contains(system, "highlighted") {
		t.Fatal("system prompt missing selection instruction")
	}

	frags := []*rag.ContextFragment{{
		Content: &contenttypes.BookContent{SectionTitle: "Mutexes", ContentText: "A mutex guards shared state."},
	}}
	history := []*chattypes.ChatMessage{
		{Role: chattypes.RoleUser, Content: "what is a lock?"},
		{Role: chattypes.RoleAssistant, Content: "A lock serializes access."},
	}
	prompt := cs.userPrompt("why a mutex?", frags, history)
	for _, want := range []string{"Mutexes", "A mutex guards shared state.", "what is a lock?", "Question: why a mutex?"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	urdu := "یہ باب وقفوں کے بارے میں ہے"
	for max := 1; max < len(urdu); max++ {
		got := truncate(urdu, max)
		if !utf8.ValidString(got) {
			t.Fatalf("max=%d produced invalid UTF-8: %q", max, got)
		}
	}
	if got := truncate("short", 60); got != "short" {
		t.Fatalf("short input changed: %q", got)
	}
}
