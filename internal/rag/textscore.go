package rag

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\w+`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "may": {}, "might": {}, "must": {},
	"can": {}, "this": {}, "that": {}, "these": {}, "those": {}, "i": {},
	"you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {}, "me": {},
	"him": {}, "her": {}, "us": {}, "them": {}, "my": {}, "your": {}, "his": {},
	"its": {}, "our": {}, "their": {},
}

// Tokenize lowercases text and returns its word tokens.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func tokenSet(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range Tokenize(text) {
		out[w] = struct{}{}
	}
	return out
}

// ExtractKeywords returns the non-stop-word tokens longer than two characters.
func ExtractKeywords(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, w := range Tokenize(text) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// RelevanceScore combines Jaccard word overlap with a boost for adjacent
// query-word pairs appearing verbatim in the content. Capped at 1.
func RelevanceScore(query, content string) float64 {
	queryWords := tokenSet(query)
	if len(queryWords) == 0 {
		return 0
	}
	contentWords := tokenSet(content)
	contentLower := strings.ToLower(content)

	overlap := 0
	union := len(contentWords)
	for w := range queryWords {
		if _, ok := contentWords[w]; ok {
			overlap++
		} else {
			union++
		}
	}
	jaccard := 0.0
	if union > 0 {
		jaccard = float64(overlap) / float64(union)
	}

	phraseScore := 0.0
	tokens := Tokenize(query)
	for i := 0; i+1 < len(tokens); i++ {
		if strings.Contains(contentLower, tokens[i]+" "+tokens[i+1]) {
			phraseScore += 0.1
		}
	}

	total := jaccard + phraseScore
	if total > 1 {
		total = 1
	}
	return total
}

// QuestionRelevanceScore weighs keyword hits at 0.6 and raw word overlap
// at 0.4.
func QuestionRelevanceScore(question, content string, keywords []string) float64 {
	contentLower := strings.ToLower(content)

	keywordScore := 0.0
	if len(keywords) > 0 {
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(contentLower, strings.ToLower(kw)) {
				matches++
			}
		}
		keywordScore = float64(matches) / float64(len(keywords))
	}

	questionWords := tokenSet(question)
	overlapScore := 0.0
	if len(questionWords) > 0 {
		contentWords := tokenSet(content)
		overlap := 0
		for w := range questionWords {
			if _, ok := contentWords[w]; ok {
				overlap++
			}
		}
		overlapScore = float64(overlap) / float64(len(questionWords))
	}

	return keywordScore*0.6 + overlapScore*0.4
}

// SummarizationRelevanceScore favors longer fragments and informative
// keywords.
func SummarizationRelevanceScore(content string) float64 {
	lengthScore := float64(len(content)) / 1000
	if lengthScore > 1 {
		lengthScore = 1
	}

	importantKeywords := []string{
		"important", "key", "main", "summary", "conclusion",
		"significant", "crucial", "notable", "essential",
	}
	contentLower := strings.ToLower(content)
	keywordScore := 0.0
	for _, kw := range importantKeywords {
		if strings.Contains(contentLower, kw) {
			keywordScore += 0.1
		}
	}
	if keywordScore > 0.5 {
		keywordScore = 0.5
	}

	return lengthScore*0.7 + keywordScore*0.3
}

// IsSimilar reports whether two texts share at least threshold of their
// combined vocabulary.
func IsSimilar(a, b string, threshold float64) bool {
	wordsA := tokenSet(a)
	wordsB := tokenSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return true
	}
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}
	overlap := 0
	union := len(wordsB)
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			overlap++
		} else {
			union++
		}
	}
	return float64(overlap)/float64(union) >= threshold
}

// CountKeywordMatches counts keywords appearing in text.
func CountKeywordMatches(keywords []string, text string) int {
	textLower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(textLower, strings.ToLower(kw)) {
			n++
		}
	}
	return n
}

// IsImportantSection flags section titles that usually carry the chapter's
// core material.
func IsImportantSection(sectionTitle string) bool {
	if sectionTitle == "" {
		return false
	}
	indicators := []string{
		"introduction", "summary", "conclusion", "overview",
		"key points", "important", "essential", "critical",
	}
	lower := strings.ToLower(sectionTitle)
	for _, ind := range indicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}
