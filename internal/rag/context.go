package rag

import (
	"sort"
	"strings"

	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
)

const (
	questionRelevanceThreshold = 0.1
	metadataRelevanceThreshold = 0.05
	defaultContextWindow       = 2
)

// ContextFragment is a scored piece of book content handed to the model as
// grounding context.
type ContextFragment struct {
	Content        *contenttypes.BookContent
	RelevanceScore float64
	IsTarget       bool
	KeywordMatches int
	IsImportant    bool
}

// ContextForExplanation locates the chunk containing (or most similar to)
// target and returns it with windowSize neighbors on each side, sorted by
// relevance to the target.
func ContextForExplanation(target string, chunks []*contenttypes.BookContent, windowSize int) []*ContextFragment {
	if len(chunks) == 0 {
		return nil
	}
	if windowSize < 0 {
		windowSize = defaultContextWindow
	}

	targetIdx := -1
	for idx, chunk := range chunks {
		if strings.Contains(chunk.ContentText, target) || IsSimilar(target, chunk.ContentText, 0.7) {
			targetIdx = idx
			break
		}
	}
	if targetIdx == -1 {
		best := -1.0
		for idx, chunk := range chunks {
			if score := RelevanceScore(target, chunk.ContentText); score > best {
				best = score
				targetIdx = idx
			}
		}
	}

	start := targetIdx - windowSize
	if start < 0 {
		start = 0
	}
	end := targetIdx + windowSize + 1
	if end > len(chunks) {
		end = len(chunks)
	}

	fragments := make([]*ContextFragment, 0, end-start)
	for i := start; i < end; i++ {
		fragments = append(fragments, &ContextFragment{
			Content:        chunks[i],
			RelevanceScore: RelevanceScore(target, chunks[i].ContentText),
			IsTarget:       i == targetIdx,
		})
	}
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].RelevanceScore > fragments[j].RelevanceScore
	})
	return fragments
}

// ContextForQuestion scores every chunk against the question and keeps those
// above the relevance threshold, at most maxFragments of them.
func ContextForQuestion(question string, chunks []*contenttypes.BookContent, maxFragments int) []*ContextFragment {
	if maxFragments <= 0 {
		maxFragments = 5
	}
	keywords := ExtractKeywords(question)

	var fragments []*ContextFragment
	for _, chunk := range chunks {
		score := QuestionRelevanceScore(question, chunk.ContentText, keywords)
		if score <= questionRelevanceThreshold {
			continue
		}
		fragments = append(fragments, &ContextFragment{
			Content:        chunk,
			RelevanceScore: score,
			KeywordMatches: CountKeywordMatches(keywords, chunk.ContentText),
		})
	}
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].RelevanceScore > fragments[j].RelevanceScore
	})
	if len(fragments) > maxFragments {
		fragments = fragments[:maxFragments]
	}
	return fragments
}

// ContextForSummarization scores chunks for summary value, optionally
// restricted to one section.
func ContextForSummarization(chunks []*contenttypes.BookContent, targetSection string) []*ContextFragment {
	var fragments []*ContextFragment
	for _, chunk := range chunks {
		if targetSection != "" && chunk.SectionTitle != targetSection {
			continue
		}
		fragments = append(fragments, &ContextFragment{
			Content:        chunk,
			RelevanceScore: SummarizationRelevanceScore(chunk.ContentText),
			IsImportant:    IsImportantSection(chunk.SectionTitle),
		})
	}
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].RelevanceScore > fragments[j].RelevanceScore
	})
	return fragments
}

// ContextWithMetadata keeps any chunk loosely related to the query. The
// lower threshold suits metadata lookups where recall matters more than
// precision.
func ContextWithMetadata(query string, chunks []*contenttypes.BookContent) []*ContextFragment {
	var fragments []*ContextFragment
	for _, chunk := range chunks {
		score := RelevanceScore(query, chunk.ContentText)
		if score <= metadataRelevanceThreshold {
			continue
		}
		fragments = append(fragments, &ContextFragment{
			Content:        chunk,
			RelevanceScore: score,
		})
	}
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].RelevanceScore > fragments[j].RelevanceScore
	})
	return fragments
}
