package rag

import (
	"testing"
)

func TestExtractKeywordsDropsStopWords(t *testing.T) {
	got := ExtractKeywords("What is the CPU scheduler and how does it work?")
	want := map[string]bool{"what": true, "cpu": true, "scheduler": true, "how": true, "work": true}
	if len(got) != len(want) {
		t.Fatalf("unexpected keywords: %v", got)
	}
	for _, kw := range got {
		if !want[kw] {
			t.Fatalf("unexpected keyword %q in %v", kw, got)
		}
	}
}

func TestRelevanceScorePhraseBoost(t *testing.T) {
	base := RelevanceScore("virtual memory", "The kernel manages memory for processes. Virtual addressing maps pages.")
	boosted := RelevanceScore("virtual memory", "The kernel uses virtual memory to map pages for processes.")
	if boosted <= base {
		t.Fatalf("expected phrase match boost: base=%f boosted=%f", base, boosted)
	}
}

func TestRelevanceScoreBounds(t *testing.T) {
	if got := RelevanceScore("", "anything"); got != 0 {
		t.Fatalf("empty query should score 0, got %f", got)
	}
	if got := RelevanceScore("same words here", "same words here same words here"); got > 1 {
		t.Fatalf("score should cap at 1, got %f", got)
	}
}

func TestQuestionRelevanceScoreWeights(t *testing.T) {
	question := "How does garbage collection work?"
	keywords := ExtractKeywords(question)

	relevant := QuestionRelevanceScore(question, "Garbage collection frees unused memory. The work happens in cycles.", keywords)
	irrelevant := QuestionRelevanceScore(question, "Chapter two covers filesystems and disk layout.", keywords)
	if relevant <= irrelevant {
		t.Fatalf("expected relevant > irrelevant: %f vs %f", relevant, irrelevant)
	}
	if relevant > 1 {
		t.Fatalf("score should stay within [0,1], got %f", relevant)
	}
}

func TestSummarizationRelevanceScoreFavorsLongInformative(t *testing.T) {
	short := SummarizationRelevanceScore("Short note.")

	long := make([]byte, 0, 1100)
	for len(long) < 1000 {
		long = append(long, "In summary, the key conclusion is significant. "...)
	}
	rich := SummarizationRelevanceScore(string(long))
	if rich <= short {
		t.Fatalf("expected long informative content to score higher: %f vs %f", rich, short)
	}
}

func TestIsSimilar(t *testing.T) {
	if !IsSimilar("the quick brown fox", "the quick brown fox", 0.7) {
		t.Fatal("identical text should be similar")
	}
	if IsSimilar("alpha beta gamma", "delta epsilon zeta", 0.7) {
		t.Fatal("disjoint text should not be similar")
	}
	if !IsSimilar("", "", 0.7) {
		t.Fatal("two empty texts are similar")
	}
	if IsSimilar("words", "", 0.7) {
		t.Fatal("empty vs non-empty is not similar")
	}
}

func TestIsImportantSection(t *testing.T) {
	if !IsImportantSection("Chapter Summary") {
		t.Fatal("summary sections are important")
	}
	if IsImportantSection("Appendix C: Pin Diagrams") {
		t.Fatal("appendix is not flagged important")
	}
	if IsImportantSection("") {
		t.Fatal("empty title is not important")
	}
}
