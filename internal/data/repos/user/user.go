package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/user"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, u *types.User) (*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdateBackground(dbc dbctx.Context, userID uuid.UUID, software, hardware string) error
	UpdatePreferredLanguage(dbc dbctx.Context, userID uuid.UUID, language string) error
	UpdatePlan(dbc dbctx.Context, userID uuid.UUID, plan string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) Create(dbc dbctx.Context, u *types.User) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if u == nil {
		return nil, nil
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if err := t.WithContext(dbc.Ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.User
	if err := t.WithContext(dbc.Ctx).Where("id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.User
	if err := t.WithContext(dbc.Ctx).Where("email = ?", email).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepo) UpdateBackground(dbc dbctx.Context, userID uuid.UUID, software, hardware string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"software_background": software,
			"hardware_background": hardware,
		}).Error
}

func (r *userRepo) UpdatePreferredLanguage(dbc dbctx.Context, userID uuid.UUID, language string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("preferred_language", language).Error
}

func (r *userRepo) UpdatePlan(dbc dbctx.Context, userID uuid.UUID, plan string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("plan", plan).Error
}
