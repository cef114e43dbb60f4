package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
)

func newTestTranslationService(t *testing.T, ai *fakeAI, content *fakeContentRepo, trans *fakeTranslationRepo, cache *fakeCache) *translationService {
	t.Helper()
	return &translationService{
		log:             testLogger(t).With("service", "TranslationService"),
		ai:              ai,
		cache:           cache,
		contentRepo:     content,
		translationRepo: trans,
	}
}

func englishChunk() *contenttypes.BookContent {
	return &contenttypes.BookContent{
		ID:          uuid.New(),
		BookID:      uuid.New(),
		ContentText: "Interrupt handlers must not block.",
		Language:    "en",
	}
}

func TestTranslateSameLanguageShortCircuits(t *testing.T) {
	chunk := englishChunk()
	ai := &fakeAI{}
	ts := newTestTranslationService(t, ai, newFakeContentRepo(chunk), newFakeTranslationRepo(), newFakeCache())

	res, err := ts.Translate(context.Background(), chunk.ID, "EN")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != chunk.ContentText {
		t.Fatalf("text = %q, want source text", res.Text)
	}
	if ai.calls != 0 {
		t.Fatalf("model called %d times, want 0", ai.calls)
	}
}

func TestTranslateServesRedisHit(t *testing.T) {
	chunk := englishChunk()
	ai := &fakeAI{}
	cache := newFakeCache()
	if err := cache.Set(context.Background(), translationKey(chunk.ID, "es", hashText(chunk.ContentText)), "cached spanish", time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	ts := newTestTranslationService(t, ai, newFakeContentRepo(chunk), newFakeTranslationRepo(), cache)

	res, err := ts.Translate(context.Background(), chunk.ID, "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !res.Cached || res.Text != "cached spanish" {
		t.Fatalf("got %+v, want cached redis value", res)
	}
	if ai.calls != 0 {
		t.Fatalf("model called %d times, want 0", ai.calls)
	}
}

func TestTranslateServesDatabaseHitAndBackfillsRedis(t *testing.T) {
	chunk := englishChunk()
	trans := newFakeTranslationRepo()
	row := &contenttypes.TranslationCache{
		ID:             uuid.New(),
		ContentID:      chunk.ID,
		Language:       "es",
		TranslatedText: "stored spanish",
		SourceHash:     hashText(chunk.ContentText),
		ExpiresAt:      time.Now().Add(time.Hour),
	}
	if err := trans.Upsert(dbctx.Context{}, row); err != nil {
		t.Fatalf("seed: %v", err)
	}
	cache := newFakeCache()
	ts := newTestTranslationService(t, &fakeAI{}, newFakeContentRepo(chunk), trans, cache)

	res, err := ts.Translate(context.Background(), chunk.ID, "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !res.Cached || res.Text != "stored spanish" {
		t.Fatalf("got %+v, want stored row", res)
	}
	if trans.hits != 1 {
		t.Fatalf("hit count increments = %d, want 1", trans.hits)
	}
	if v, ok, _ := cache.Get(context.Background(), translationKey(chunk.ID, "es", hashText(chunk.ContentText))); !ok || v != "stored spanish" {
		t.Fatal("expected redis backfill")
	}
}

func TestTranslateStaleHashIgnoresStoredRow(t *testing.T) {
	chunk := englishChunk()
	trans := newFakeTranslationRepo()
	if err := trans.Upsert(dbctx.Context{}, &contenttypes.TranslationCache{
		ID:             uuid.New(),
		ContentID:      chunk.ID,
		Language:       "es",
		TranslatedText: "translation of old text",
		SourceHash:     "stale",
		ExpiresAt:      time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ai := &fakeAI{err: fmt.Errorf("model down")}
	ts := newTestTranslationService(t, ai, newFakeContentRepo(chunk), trans, newFakeCache())

	res, err := ts.Translate(context.Background(), chunk.ID, "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Cached {
		t.Fatal("stale row must not be served as a cache hit")
	}
	if ai.calls != 1 {
		t.Fatalf("model called %d times, want 1", ai.calls)
	}
}

func TestTranslateFallsBackToSourceLanguage(t *testing.T) {
	chunk := englishChunk()
	ai := &fakeAI{err: fmt.Errorf("model down")}
	ts := newTestTranslationService(t, ai, newFakeContentRepo(chunk), newFakeTranslationRepo(), newFakeCache())

	res, err := ts.Translate(context.Background(), chunk.ID, "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback result")
	}
	if res.Language != "en" || res.Text != chunk.ContentText {
		t.Fatalf("got %+v, want source passage", res)
	}
}

func TestTranslateUnknownContentFails(t *testing.T) {
	ts := newTestTranslationService(t, &fakeAI{}, newFakeContentRepo(), newFakeTranslationRepo(), newFakeCache())
	if _, err := ts.Translate(context.Background(), uuid.New(), "es"); err == nil {
		t.Fatal("expected missing content error")
	}
}

func TestTranslateIgnoresRedisEntryForReplacedText(t *testing.T) {
	chunk := englishChunk()
	cache := newFakeCache()
	oldKey := translationKey(chunk.ID, "es", hashText(chunk.ContentText))
	if err := cache.Set(context.Background(), oldKey, "translation of old text", time.Hour); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	// Re-ingestion keeps the row id but replaces the text.
	chunk.ContentText = "Interrupt handlers may be preempted on this platform."
	ai := &fakeAI{err: fmt.Errorf("model down")}
	ts := newTestTranslationService(t, ai, newFakeContentRepo(chunk), newFakeTranslationRepo(), cache)

	res, err := ts.Translate(context.Background(), chunk.ID, "es")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Cached || res.Text == "translation of old text" {
		t.Fatalf("got %+v, want stale redis entry skipped", res)
	}
	if ai.calls != 1 {
		t.Fatalf("model called %d times, want 1", ai.calls)
	}
}
