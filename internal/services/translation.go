package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/clients/redis"
	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/platform/openai"
)

const (
	translationCacheTTL = 30 * 24 * time.Hour
	translationRedisTTL = time.Hour
)

type TranslationResult struct {
	ContentID uuid.UUID `json:"content_id"`
	Language  string    `json:"language"`
	Text      string    `json:"text"`
	Cached    bool      `json:"cached"`
	Fallback  bool      `json:"fallback"`
}

type TranslationService interface {
	Translate(ctx context.Context, contentID uuid.UUID, targetLanguage string) (*TranslationResult, error)
}

type translationService struct {
	db              *gorm.DB
	log             *logger.Logger
	ai              openai.Client
	cache           redis.Cache
	contentRepo     repos.BookContentRepo
	translationRepo repos.TranslationCacheRepo
}

func NewTranslationService(
	db *gorm.DB,
	log *logger.Logger,
	ai openai.Client,
	cache redis.Cache,
	contentRepo repos.BookContentRepo,
	translationRepo repos.TranslationCacheRepo,
) TranslationService {
	return &translationService{
		db:              db,
		log:             log.With("service", "TranslationService"),
		ai:              ai,
		cache:           cache,
		contentRepo:     contentRepo,
		translationRepo: translationRepo,
	}
}

func (ts *translationService) Translate(ctx context.Context, contentID uuid.UUID, targetLanguage string) (*TranslationResult, error) {
	targetLanguage = strings.ToLower(strings.TrimSpace(targetLanguage))
	if targetLanguage == "" {
		return nil, fmt.Errorf("target language required")
	}

	content, err := ts.contentRepo.GetByID(dbctx.Context{Ctx: ctx}, contentID)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if content == nil {
		return nil, fmt.Errorf("content %s not found", contentID)
	}

	if targetLanguage == content.Language {
		return &TranslationResult{
			ContentID: contentID,
			Language:  content.Language,
			Text:      content.ContentText,
		}, nil
	}

	// Keying on the source hash makes Redis entries for replaced content
	// unreachable instead of waiting out their TTL.
	sourceHash := hashText(content.ContentText)
	key := translationKey(contentID, targetLanguage, sourceHash)
	if cached, ok, err := ts.cache.Get(ctx, key); err != nil {
		ts.log.Warn("Redis lookup failed, falling through", "error", err)
	} else if ok {
		return &TranslationResult{ContentID: contentID, Language: targetLanguage, Text: cached, Cached: true}, nil
	}

	row, err := ts.translationRepo.Get(dbctx.Context{Ctx: ctx}, contentID, targetLanguage)
	if err != nil {
		return nil, fmt.Errorf("load translation cache: %w", err)
	}
	if row != nil && row.SourceHash == sourceHash && row.ExpiresAt.After(time.Now()) {
		if err := ts.translationRepo.IncrementHit(dbctx.Context{Ctx: ctx}, row.ID); err != nil {
			ts.log.Warn("Hit count update failed", "error", err)
		}
		if err := ts.cache.Set(ctx, key, row.TranslatedText, translationRedisTTL); err != nil {
			ts.log.Warn("Redis backfill failed", "error", err)
		}
		return &TranslationResult{ContentID: contentID, Language: targetLanguage, Text: row.TranslatedText, Cached: true}, nil
	}

	translated, err := ts.generate(ctx, content, targetLanguage)
	if err != nil {
		// Serve the source language rather than failing the read.
		ts.log.Warn("Translation failed, serving source language",
			"content_id", contentID.String(),
			"language", targetLanguage,
			"error", err)
		return &TranslationResult{
			ContentID: contentID,
			Language:  content.Language,
			Text:      content.ContentText,
			Fallback:  true,
		}, nil
	}

	err = ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ts.translationRepo.Upsert(dbctx.Context{Ctx: ctx, Tx: tx}, &contenttypes.TranslationCache{
			ID:             uuid.New(),
			ContentID:      contentID,
			Language:       targetLanguage,
			TranslatedText: translated,
			SourceHash:     sourceHash,
			ExpiresAt:      time.Now().Add(translationCacheTTL),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store translation: %w", err)
	}
	if err := ts.cache.Set(ctx, key, translated, translationRedisTTL); err != nil {
		ts.log.Warn("Redis store failed", "error", err)
	}

	return &TranslationResult{ContentID: contentID, Language: targetLanguage, Text: translated}, nil
}

func (ts *translationService) generate(ctx context.Context, content *contenttypes.BookContent, targetLanguage string) (string, error) {
	system := fmt.Sprintf(
		"You are a technical translator. Translate the given textbook passage into language %q. "+
			"Keep code blocks, identifiers, and technical terms in their original form. "+
			"Return only the translated passage.", targetLanguage)

	translated, err := ts.ai.GenerateText(ctx, system, content.ContentText)
	if err != nil {
		return "", err
	}
	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", fmt.Errorf("empty translation")
	}
	return translated, nil
}

func translationKey(contentID uuid.UUID, language, sourceHash string) string {
	return "translation:" + contentID.String() + ":" + language + ":" + sourceHash
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
