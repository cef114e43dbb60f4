package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	contentrepo "github.com/bookbridge/bookbridge-backend/internal/data/repos/content"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/platform/openai"
	"github.com/bookbridge/bookbridge-backend/internal/platform/vector"
)

const (
	defaultSemanticWeight = 0.7
	defaultKeywordWeight  = 0.3
)

// Result is one retrieved chunk with its scores. CombinedScore is set by
// hybrid search, RerankedScore by the rerank pass.
type Result struct {
	Content *contenttypes.BookContent

	SemanticScore float64
	KeywordScore  float64
	CombinedScore float64
	RerankedScore float64
}

// Retriever finds book chunks relevant to a query. Namespaces in the vector
// store are keyed by book ID, so semantic search never crosses books.
type Retriever interface {
	SemanticSearch(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error)
	KeywordSearch(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error)
	HybridSearch(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error)
	SearchWithRerank(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error)
}

type retriever struct {
	log         *logger.Logger
	ai          openai.Client
	store       vector.Store
	contentRepo contentrepo.BookContentRepo

	semanticWeight float64
	keywordWeight  float64
}

func NewRetriever(log *logger.Logger, ai openai.Client, store vector.Store, contentRepo contentrepo.BookContentRepo) Retriever {
	return &retriever{
		log:            log.With("service", "Retriever"),
		ai:             ai,
		store:          store,
		contentRepo:    contentRepo,
		semanticWeight: defaultSemanticWeight,
		keywordWeight:  defaultKeywordWeight,
	}
}

func (r *retriever) SemanticSearch(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error) {
	if topK <= 0 {
		topK = 5
	}
	vecs, err := r.ai.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.store.QueryMatches(ctx, bookID.String(), vecs[0], topK, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(matches))
	scoreByID := make(map[uuid.UUID]float64, len(matches))
	for _, m := range matches {
		id, err := uuid.Parse(m.ID)
		if err != nil {
			r.log.Warn("skipping vector match with non-uuid id", "match_id", m.ID)
			continue
		}
		ids = append(ids, id)
		scoreByID[id] = m.Score
	}

	rows, err := r.contentRepo.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, fmt.Errorf("load matched chunks: %w", err)
	}
	rowByID := make(map[uuid.UUID]*contenttypes.BookContent, len(rows))
	for _, row := range rows {
		rowByID[row.ID] = row
	}

	results := make([]*Result, 0, len(ids))
	for _, id := range ids {
		row, ok := rowByID[id]
		if !ok {
			continue
		}
		results = append(results, &Result{Content: row, SemanticScore: scoreByID[id]})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SemanticScore > results[j].SemanticScore
	})
	return results, nil
}

func (r *retriever) KeywordSearch(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error) {
	if topK <= 0 {
		topK = 5
	}
	keywords := ExtractKeywords(query)
	rows, err := r.contentRepo.SearchByTerms(dbctx.Context{Ctx: ctx}, bookID, keywords, topK*4)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	queryWords := tokenSet(query)
	results := make([]*Result, 0, len(rows))
	for _, row := range rows {
		score := 0.0
		if len(queryWords) > 0 {
			contentWords := tokenSet(row.ContentText)
			overlap := 0
			for w := range queryWords {
				if _, ok := contentWords[w]; ok {
					overlap++
				}
			}
			score = float64(overlap) / float64(len(queryWords))
		}
		results = append(results, &Result{Content: row, KeywordScore: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].KeywordScore > results[j].KeywordScore
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// HybridSearch overfetches both strategies and blends their scores.
func (r *retriever) HybridSearch(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error) {
	if topK <= 0 {
		topK = 5
	}
	semantic, err := r.SemanticSearch(ctx, bookID, query, topK*2)
	if err != nil {
		return nil, err
	}
	keyword, err := r.KeywordSearch(ctx, bookID, query, topK*2)
	if err != nil {
		return nil, err
	}

	merged := map[uuid.UUID]*Result{}
	order := []uuid.UUID{}
	for _, res := range semantic {
		merged[res.Content.ID] = &Result{Content: res.Content, SemanticScore: res.SemanticScore}
		order = append(order, res.Content.ID)
	}
	for _, res := range keyword {
		if existing, ok := merged[res.Content.ID]; ok {
			existing.KeywordScore = res.KeywordScore
			continue
		}
		merged[res.Content.ID] = &Result{Content: res.Content, KeywordScore: res.KeywordScore}
		order = append(order, res.Content.ID)
	}

	results := make([]*Result, 0, len(order))
	for _, id := range order {
		res := merged[id]
		res.CombinedScore = r.semanticWeight*res.SemanticScore + r.keywordWeight*res.KeywordScore
		results = append(results, res)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// SearchWithRerank overfetches hybrid results and rescores them with term
// overlap, length, and position factors.
func (r *retriever) SearchWithRerank(ctx context.Context, bookID uuid.UUID, query string, topK int) ([]*Result, error) {
	if topK <= 0 {
		topK = 10
	}
	initial, err := r.HybridSearch(ctx, bookID, query, topK*2)
	if err != nil {
		return nil, err
	}
	results := Rerank(query, initial)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Rerank rescores results: half the base score plus term overlap, a length
// factor penalizing fragments under 20 or over 500 words, and a position
// factor (constant until structural metadata feeds it).
func Rerank(query string, results []*Result) []*Result {
	queryWords := tokenSet(query)

	for _, res := range results {
		contentTokens := Tokenize(res.Content.ContentText)
		contentWords := map[string]struct{}{}
		for _, w := range contentTokens {
			contentWords[w] = struct{}{}
		}

		termOverlap := 0.0
		if len(queryWords) > 0 {
			overlap := 0
			for w := range queryWords {
				if _, ok := contentWords[w]; ok {
					overlap++
				}
			}
			termOverlap = float64(overlap) / float64(len(queryWords))
		}

		lengthScore := 1.0
		if len(contentTokens) < 20 || len(contentTokens) > 500 {
			lengthScore = 0.5
		}

		positionScore := 1.0

		base := res.CombinedScore
		if base == 0 {
			base = res.SemanticScore
		}
		res.RerankedScore = 0.5*base + 0.3*termOverlap + 0.1*lengthScore + 0.1*positionScore
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RerankedScore > results[j].RerankedScore
	})
	return results
}
