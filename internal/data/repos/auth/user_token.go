package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/auth"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, row *types.UserToken) error
	GetActiveByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error)
	Revoke(dbc dbctx.Context, tokenID uuid.UUID) error
	RevokeAllForUser(dbc dbctx.Context, userID uuid.UUID) error
	DeleteExpired(dbc dbctx.Context) (int64, error)
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: baseLog.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) Create(dbc dbctx.Context, row *types.UserToken) error {
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
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *userTokenRepo) GetActiveByRefreshToken(dbc dbctx.Context, refreshToken string) (*types.UserToken, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row types.UserToken
	if err := t.WithContext(dbc.Ctx).
		Where("refresh_token = ? AND revoked_at IS NULL AND expires_at > ?", refreshToken, time.Now().UTC()).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *userTokenRepo) Revoke(dbc dbctx.Context, tokenID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.UserToken{}).
		Where("id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", &now).Error
}

func (r *userTokenRepo) RevokeAllForUser(dbc dbctx.Context, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	return t.WithContext(dbc.Ctx).
		Model(&types.UserToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &now).Error
}

func (r *userTokenRepo) DeleteExpired(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Unscoped().
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&types.UserToken{})
	return res.RowsAffected, res.Error
}
