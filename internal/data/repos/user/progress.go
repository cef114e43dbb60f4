package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type UserProgressRepo interface {
	Upsert(dbc dbctx.Context, row *types.UserProgress) error
	GetByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) (*types.UserProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserProgress, error)
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return &userProgressRepo{db: db, log: baseLog.With("repo", "UserProgressRepo")}
}

func (r *userProgressRepo) Upsert(dbc dbctx.Context, row *types.UserProgress) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.ContentID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	row.UpdatedAt = now
	if row.LastReadAt == nil {
		row.LastReadAt = &now
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "content_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"percentage",
				"last_position",
				"completed",
				"last_read_at",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *userProgressRepo) GetByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) (*types.UserProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.UserProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.UserProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.UserProgress
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
