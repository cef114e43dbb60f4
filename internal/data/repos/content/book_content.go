package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type BookContentRepo interface {
	UpsertBatch(dbc dbctx.Context, rows []*types.BookContent) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BookContent, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.BookContent, error)

	// GetNeighbors returns chunks of the same book and chapter whose chunk
	// index falls within [center-window, center+window], ordered by index.
	GetNeighbors(dbc dbctx.Context, bookID uuid.UUID, chapter, centerIndex, window int) ([]*types.BookContent, error)

	// SearchByTerms returns chunks whose text contains at least one of the
	// lowercased terms. Scoring happens in the retrieval layer.
	SearchByTerms(dbc dbctx.Context, bookID uuid.UUID, terms []string, limit int) ([]*types.BookContent, error)

	SetEmbeddingID(dbc dbctx.Context, id uuid.UUID, embeddingID string) error
	ListByBook(dbc dbctx.Context, bookID uuid.UUID) ([]*types.BookContent, error)
	DeleteByBook(dbc dbctx.Context, bookID uuid.UUID) (int64, error)

	// DeleteByChapterFrom removes chapter rows at chunk_index >= fromIndex
	// and returns their ids so callers can drop vectors and translations.
	DeleteByChapterFrom(dbc dbctx.Context, bookID uuid.UUID, chapter, fromIndex int) ([]uuid.UUID, error)
}

type bookContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookContentRepo(db *gorm.DB, baseLog *logger.Logger) BookContentRepo {
	return &bookContentRepo{db: db, log: baseLog.With("repo", "BookContentRepo")}
}

func (r *bookContentRepo) UpsertBatch(dbc dbctx.Context, rows []*types.BookContent) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.UpdatedAt = now
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "book_id"}, {Name: "chapter"}, {Name: "chunk_index"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"section_title",
				"page_number",
				"content_text",
				"content_type",
				"language",
				"embedding_id",
				"updated_at",
			}),
		}).
		CreateInBatches(rows, 200).Error
}

func (r *bookContentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BookContent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.BookContent
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *bookContentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.BookContent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.BookContent
	if len(ids) == 0 {
		return rows, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bookContentRepo) GetNeighbors(dbc dbctx.Context, bookID uuid.UUID, chapter, centerIndex, window int) ([]*types.BookContent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if window < 0 {
		window = 0
	}
	low := centerIndex - window
	high := centerIndex + window
	var rows []*types.BookContent
	if err := t.WithContext(dbc.Ctx).
		Where("book_id = ? AND chapter = ? AND chunk_index BETWEEN ? AND ?", bookID, chapter, low, high).
		Order("chunk_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bookContentRepo) SearchByTerms(dbc dbctx.Context, bookID uuid.UUID, terms []string, limit int) ([]*types.BookContent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(strings.ToLower(term))
		if term != "" {
			cleaned = append(cleaned, term)
		}
	}
	var rows []*types.BookContent
	if len(cleaned) == 0 {
		return rows, nil
	}
	if limit <= 0 {
		limit = 20
	}

	q := t.WithContext(dbc.Ctx).Where("book_id = ?", bookID)
	conds := make([]string, 0, len(cleaned))
	args := make([]any, 0, len(cleaned))
	for _, term := range cleaned {
		conds = append(conds, "lower(content_text) LIKE ?")
		args = append(args, "%"+term+"%")
	}
	q = q.Where(strings.Join(conds, " OR "), args...)

	if err := q.Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bookContentRepo) SetEmbeddingID(dbc dbctx.Context, id uuid.UUID, embeddingID string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.BookContent{}).
		Where("id = ?", id).
		Update("embedding_id", embeddingID).Error
}

func (r *bookContentRepo) ListByBook(dbc dbctx.Context, bookID uuid.UUID) ([]*types.BookContent, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.BookContent
	if err := t.WithContext(dbc.Ctx).
		Where("book_id = ?", bookID).
		Order("chapter ASC, chunk_index ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bookContentRepo) DeleteByBook(dbc dbctx.Context, bookID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	// Hard delete: a soft-deleted row would keep holding its
	// (book_id, chapter, chunk_index) unique-index slot and re-ingesting
	// the book would conflict into an invisible row.
	res := t.WithContext(dbc.Ctx).
		Unscoped().
		Where("book_id = ?", bookID).
		Delete(&types.BookContent{})
	return res.RowsAffected, res.Error
}

func (r *bookContentRepo) DeleteByChapterFrom(dbc dbctx.Context, bookID uuid.UUID, chapter, fromIndex int) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if fromIndex < 0 {
		fromIndex = 0
	}
	var ids []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.BookContent{}).
		Where("book_id = ? AND chapter = ? AND chunk_index >= ?", bookID, chapter, fromIndex).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Unscoped().
		Where("id IN ?", ids).
		Delete(&types.BookContent{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
