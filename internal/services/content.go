package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/bookbridge/bookbridge-backend/internal/data/repos"
	contenttypes "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/ingestion"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
	"github.com/bookbridge/bookbridge-backend/internal/platform/openai"
	"github.com/bookbridge/bookbridge-backend/internal/platform/vector"
	"github.com/bookbridge/bookbridge-backend/internal/rag"
)

const (
	embedBatchSize   = 64
	embedConcurrency = 4
)

type IngestRequest struct {
	BookID       uuid.UUID
	Chapter      int
	SectionTitle string
	Language     string
	FileName     string
	MimeType     string
	Data         []byte
}

type IngestResult struct {
	ChunksStored    int `json:"chunks_stored"`
	VectorsUpserted int `json:"vectors_upserted"`
}

type ContentService interface {
	IngestChapter(ctx context.Context, req *IngestRequest) (*IngestResult, error)
	GetContent(ctx context.Context, contentID uuid.UUID) (*contenttypes.BookContent, error)
	ListBook(ctx context.Context, bookID uuid.UUID) ([]*contenttypes.BookContent, error)
	DeleteBook(ctx context.Context, bookID uuid.UUID) error
}

type contentService struct {
	db              *gorm.DB
	log             *logger.Logger
	ai              openai.Client
	store           vector.Store
	contentRepo     repos.BookContentRepo
	translationRepo repos.TranslationCacheRepo
	splitter        *ingestion.Splitter
}

func NewContentService(
	db *gorm.DB,
	log *logger.Logger,
	ai openai.Client,
	store vector.Store,
	contentRepo repos.BookContentRepo,
	translationRepo repos.TranslationCacheRepo,
) ContentService {
	return &contentService{
		db:              db,
		log:             log.With("service", "ContentService"),
		ai:              ai,
		store:           store,
		contentRepo:     contentRepo,
		translationRepo: translationRepo,
		splitter:        ingestion.NewSplitter(ingestion.DefaultChunkSize, ingestion.DefaultChunkOverlap),
	}
}

func (cs *contentService) IngestChapter(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	if req == nil || req.BookID == uuid.Nil {
		return nil, fmt.Errorf("book id required")
	}
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	raw, err := ingestion.ExtractText(req.FileName, req.MimeType, req.Data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	text := ingestion.CleanText(raw)
	if text == "" {
		return nil, fmt.Errorf("no textual content in %q", req.FileName)
	}

	language := strings.ToLower(strings.TrimSpace(req.Language))
	if language == "" {
		language = "en"
	}

	chunks := cs.splitter.Split(text)
	rows := make([]*contenttypes.BookContent, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, &contenttypes.BookContent{
			ID:           uuid.New(),
			BookID:       req.BookID,
			Chapter:      req.Chapter,
			SectionTitle: req.SectionTitle,
			ChunkIndex:   i,
			ContentText:  chunk,
			ContentType:  contenttypes.ContentTypeText,
			Language:     language,
		})
	}

	var removed []uuid.UUID
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := cs.contentRepo.UpsertBatch(dbc, rows); err != nil {
			return err
		}
		// A shorter re-ingest leaves rows beyond the new chunk count; drop
		// them and their translations so the old text stops being served.
		ids, err := cs.contentRepo.DeleteByChapterFrom(dbc, req.BookID, req.Chapter, len(chunks))
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := cs.translationRepo.DeleteByContent(dbc, id); err != nil {
				return err
			}
		}
		removed = ids
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	if len(removed) > 0 {
		staleIDs := make([]string, 0, len(removed))
		for _, id := range removed {
			staleIDs = append(staleIDs, id.String())
		}
		if err := cs.store.DeleteIDs(ctx, req.BookID.String(), staleIDs); err != nil {
			return nil, fmt.Errorf("delete stale vectors: %w", err)
		}
	}

	// Upserts on an existing (book, chapter, chunk) position keep the old
	// row id, so re-read before embedding.
	stored, err := cs.chapterRows(ctx, req.BookID, req.Chapter)
	if err != nil {
		return nil, err
	}

	upserted, err := cs.embedAndIndex(ctx, req.BookID, stored)
	if err != nil {
		return nil, err
	}

	cs.log.Info("Chapter ingested",
		"book_id", req.BookID.String(),
		"chapter", req.Chapter,
		"chunks", len(stored),
		"vectors", upserted)
	return &IngestResult{ChunksStored: len(stored), VectorsUpserted: upserted}, nil
}

func (cs *contentService) GetContent(ctx context.Context, contentID uuid.UUID) (*contenttypes.BookContent, error) {
	row, err := cs.contentRepo.GetByID(dbctx.Context{Ctx: ctx}, contentID)
	if err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("content %s not found", contentID)
	}
	return row, nil
}

func (cs *contentService) ListBook(ctx context.Context, bookID uuid.UUID) ([]*contenttypes.BookContent, error) {
	return cs.contentRepo.ListByBook(dbctx.Context{Ctx: ctx}, bookID)
}

func (cs *contentService) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	rows, err := cs.contentRepo.ListByBook(dbctx.Context{Ctx: ctx}, bookID)
	if err != nil {
		return fmt.Errorf("list book chunks: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID.String())
		if _, err := cs.translationRepo.DeleteByContent(dbctx.Context{Ctx: ctx}, row.ID); err != nil {
			return fmt.Errorf("drop translations for %s: %w", row.ID, err)
		}
	}
	if len(ids) > 0 {
		if err := cs.store.DeleteIDs(ctx, bookID.String(), ids); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}

	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := cs.contentRepo.DeleteByBook(dbctx.Context{Ctx: ctx, Tx: tx}, bookID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	cs.log.Info("Book deleted", "book_id", bookID.String(), "chunks", len(rows))
	return nil
}

func (cs *contentService) chapterRows(ctx context.Context, bookID uuid.UUID, chapter int) ([]*contenttypes.BookContent, error) {
	all, err := cs.contentRepo.ListByBook(dbctx.Context{Ctx: ctx}, bookID)
	if err != nil {
		return nil, fmt.Errorf("reload chunks: %w", err)
	}
	rows := make([]*contenttypes.BookContent, 0, len(all))
	for _, row := range all {
		if row.Chapter == chapter {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func (cs *contentService) embedAndIndex(ctx context.Context, bookID uuid.UUID, rows []*contenttypes.BookContent) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(rows); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		g.Go(func() error {
			inputs := make([]string, len(batch))
			for i, row := range batch {
				inputs[i] = rag.EmbeddingInput(row)
			}
			vecs, err := cs.ai.Embed(gctx, inputs)
			if err != nil {
				return fmt.Errorf("embed batch: %w", err)
			}

			points := make([]vector.Vector, len(batch))
			for i, row := range batch {
				points[i] = vector.Vector{
					ID:     row.ID.String(),
					Values: vecs[i],
					Metadata: map[string]any{
						"book_id":     row.BookID.String(),
						"chapter":     row.Chapter,
						"chunk_index": row.ChunkIndex,
						"language":    row.Language,
					},
				}
			}
			if err := cs.store.Upsert(gctx, bookID.String(), points); err != nil {
				return fmt.Errorf("upsert vectors: %w", err)
			}

			for _, row := range batch {
				if err := cs.contentRepo.SetEmbeddingID(dbctx.Context{Ctx: gctx}, row.ID, row.ID.String()); err != nil {
					return fmt.Errorf("record embedding id: %w", err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(rows), nil
}
