package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos/testutil"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/vector"
)

type fakeAI struct{}

func (fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return map[string]any{}, nil
}

func (fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", nil
}

type fakeStore struct {
	matches []vector.VectorMatch
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	return nil
}

func (f *fakeStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vector.VectorMatch, error) {
	if topK < len(f.matches) {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func (f *fakeStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	return nil
}

type fakeContentRepo struct {
	rows []*contenttypes.BookContent
}

func (f *fakeContentRepo) UpsertBatch(dbc dbctx.Context, rows []*contenttypes.BookContent) error {
	return nil
}

func (f *fakeContentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*contenttypes.BookContent, error) {
	for _, row := range f.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeContentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*contenttypes.BookContent, error) {
	var out []*contenttypes.BookContent
	for _, id := range ids {
		for _, row := range f.rows {
			if row.ID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (f *fakeContentRepo) GetNeighbors(dbc dbctx.Context, bookID uuid.UUID, chapter, centerIndex, window int) ([]*contenttypes.BookContent, error) {
	return nil, nil
}

func (f *fakeContentRepo) SearchByTerms(dbc dbctx.Context, bookID uuid.UUID, terms []string, limit int) ([]*contenttypes.BookContent, error) {
	var out []*contenttypes.BookContent
	for _, row := range f.rows {
		lower := strings.ToLower(row.ContentText)
		for _, term := range terms {
			if strings.Contains(lower, strings.ToLower(term)) {
				out = append(out, row)
				break
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeContentRepo) SetEmbeddingID(dbc dbctx.Context, id uuid.UUID, embeddingID string) error {
	return nil
}

func (f *fakeContentRepo) ListByBook(dbc dbctx.Context, bookID uuid.UUID) ([]*contenttypes.BookContent, error) {
	return f.rows, nil
}

func (f *fakeContentRepo) DeleteByBook(dbc dbctx.Context, bookID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeContentRepo) DeleteByChapterFrom(dbc dbctx.Context, bookID uuid.UUID, chapter, fromIndex int) ([]uuid.UUID, error) {
	return nil, nil
}

func TestHybridSearchBlendsScores(t *testing.T) {
	bookID := uuid.New()
	semanticOnly := &contenttypes.BookContent{ID: uuid.New(), BookID: bookID, ContentText: "Cache lines and associativity."}
	both := &contenttypes.BookContent{ID: uuid.New(), BookID: bookID, ContentText: "The scheduler picks the next runnable process."}
	keywordOnly := &contenttypes.BookContent{ID: uuid.New(), BookID: bookID, ContentText: "A scheduler entry in the glossary."}

	repo := &fakeContentRepo{rows: []*contenttypes.BookContent{semanticOnly, both, keywordOnly}}
	store := &fakeStore{matches: []vector.VectorMatch{
		{ID: both.ID.String(), Score: 0.9},
		{ID: semanticOnly.ID.String(), Score: 0.8},
	}}

	r := NewRetriever(testutil.Logger(t), fakeAI{}, store, repo)
	results, err := r.HybridSearch(context.Background(), bookID, "scheduler process", 3)
	if err != nil {
		t.Fatalf("HybridSearch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// The chunk matched by both strategies should rank first.
	if results[0].Content.ID != both.ID {
		t.Fatalf("expected dual-matched chunk first, got %q", results[0].Content.ContentText)
	}
	if results[0].CombinedScore <= results[1].CombinedScore {
		t.Fatal("results not sorted by combined score")
	}
	wantTop := 0.7*0.9 + 0.3*1.0
	if diff := results[0].CombinedScore - wantTop; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("combined score: got %f want %f", results[0].CombinedScore, wantTop)
	}
}

func TestRerankLengthPenalty(t *testing.T) {
	shortText := "scheduler process"
	longText := strings.TrimSpace(strings.Repeat("the scheduler picks the next runnable process from the queue ", 5))

	short := &Result{Content: &contenttypes.BookContent{ContentText: shortText}, CombinedScore: 0.6}
	long := &Result{Content: &contenttypes.BookContent{ContentText: longText}, CombinedScore: 0.6}

	ranked := Rerank("scheduler process queue", []*Result{short, long})
	if ranked[0].Content.ContentText != longText {
		t.Fatal("expected adequately sized fragment first")
	}
	if ranked[0].RerankedScore <= ranked[1].RerankedScore {
		t.Fatal("reranked scores not ordered")
	}
}

func TestRerankFallsBackToSemanticScore(t *testing.T) {
	res := &Result{Content: &contenttypes.BookContent{ContentText: strings.Repeat("relevant words here ", 20)}, SemanticScore: 0.8}
	Rerank("relevant words", []*Result{res})
	if res.RerankedScore == 0 {
		t.Fatal("expected reranked score from semantic base")
	}
}

func TestSemanticSearchOrdersByScore(t *testing.T) {
	bookID := uuid.New()
	first := &contenttypes.BookContent{ID: uuid.New(), BookID: bookID, ContentText: "a"}
	second := &contenttypes.BookContent{ID: uuid.New(), BookID: bookID, ContentText: "b"}

	repo := &fakeContentRepo{rows: []*contenttypes.BookContent{first, second}}
	store := &fakeStore{matches: []vector.VectorMatch{
		{ID: second.ID.String(), Score: 0.4},
		{ID: first.ID.String(), Score: 0.9},
	}}

	r := NewRetriever(testutil.Logger(t), fakeAI{}, store, repo)
	results, err := r.SemanticSearch(context.Background(), bookID, "query", 5)
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content.ID != first.ID {
		t.Fatal("results not sorted by semantic score")
	}
}
