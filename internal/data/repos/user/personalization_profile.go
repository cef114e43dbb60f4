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

type PersonalizationProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.PersonalizationProfile, error)
	Upsert(dbc dbctx.Context, row *types.PersonalizationProfile) error
}

type personalizationProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPersonalizationProfileRepo(db *gorm.DB, baseLog *logger.Logger) PersonalizationProfileRepo {
	return &personalizationProfileRepo{db: db, log: baseLog.With("repo", "PersonalizationProfileRepo")}
}

func (r *personalizationProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.PersonalizationProfile, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.PersonalizationProfile
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *personalizationProfileRepo) Upsert(dbc dbctx.Context, row *types.PersonalizationProfile) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"attributes",
				"updated_at",
			}),
		}).
		Create(row).Error
}
