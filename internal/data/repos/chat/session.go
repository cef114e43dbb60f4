package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/chat"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type ChatSessionRepo interface {
	Create(dbc dbctx.Context, row *types.ChatSession) error
	GetByID(dbc dbctx.Context, sessionID uuid.UUID) (*types.ChatSession, error)
	TouchLastActive(dbc dbctx.Context, sessionID uuid.UUID) error
	SetTitle(dbc dbctx.Context, sessionID uuid.UUID, title string) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatSession, error)
	DeleteInactiveSince(dbc dbctx.Context, cutoff time.Time) (int64, error)
}

type chatSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return &chatSessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (r *chatSessionRepo) Create(dbc dbctx.Context, row *types.ChatSession) error {
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
	if row.LastActiveAt.IsZero() {
		row.LastActiveAt = time.Now().UTC()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *chatSessionRepo) GetByID(dbc dbctx.Context, sessionID uuid.UUID) (*types.ChatSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if sessionID == uuid.Nil {
		return nil, nil
	}
	var row types.ChatSession
	if err := t.WithContext(dbc.Ctx).Where("id = ?", sessionID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *chatSessionRepo) TouchLastActive(dbc dbctx.Context, sessionID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", sessionID).
		Update("last_active_at", time.Now().UTC()).Error
}

func (r *chatSessionRepo) SetTitle(dbc dbctx.Context, sessionID uuid.UUID, title string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.ChatSession{}).
		Where("id = ?", sessionID).
		Update("title", title).Error
}

func (r *chatSessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ChatSession, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var rows []*types.ChatSession
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("last_active_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatSessionRepo) DeleteInactiveSince(dbc dbctx.Context, cutoff time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("last_active_at < ?", cutoff).
		Delete(&types.ChatSession{})
	return res.RowsAffected, res.Error
}
