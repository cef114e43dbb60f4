package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/content"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type TranslationCacheRepo interface {
	Get(dbc dbctx.Context, contentID uuid.UUID, language string) (*types.TranslationCache, error)
	Upsert(dbc dbctx.Context, row *types.TranslationCache) error
	IncrementHit(dbc dbctx.Context, id uuid.UUID) error
	DeleteExpired(dbc dbctx.Context) (int64, error)
	DeleteByContent(dbc dbctx.Context, contentID uuid.UUID) (int64, error)
}

type translationCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranslationCacheRepo(db *gorm.DB, baseLog *logger.Logger) TranslationCacheRepo {
	return &translationCacheRepo{db: db, log: baseLog.With("repo", "TranslationCacheRepo")}
}

func (r *translationCacheRepo) Get(dbc dbctx.Context, contentID uuid.UUID, language string) (*types.TranslationCache, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if contentID == uuid.Nil || language == "" {
		return nil, nil
	}
	var row types.TranslationCache
	if err := t.WithContext(dbc.Ctx).
		Where("content_id = ? AND language = ?", contentID, language).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *translationCacheRepo) Upsert(dbc dbctx.Context, row *types.TranslationCache) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ContentID == uuid.Nil || row.Language == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "content_id"}, {Name: "language"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"translated_text",
				"source_hash",
				"expires_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *translationCacheRepo) IncrementHit(dbc dbctx.Context, id uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.TranslationCache{}).
		Where("id = ?", id).
		Update("hit_count", gorm.Expr("hit_count + 1")).Error
}

func (r *translationCacheRepo) DeleteExpired(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Unscoped().
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&types.TranslationCache{})
	return res.RowsAffected, res.Error
}

func (r *translationCacheRepo) DeleteByContent(dbc dbctx.Context, contentID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Unscoped().
		Where("content_id = ?", contentID).
		Delete(&types.TranslationCache{})
	return res.RowsAffected, res.Error
}
