package chat

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/bookbridge/bookbridge-backend/internal/domain/chat"
	"github.com/bookbridge/bookbridge-backend/internal/pkg/dbctx"
	"github.com/bookbridge/bookbridge-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, row *types.ChatMessage) error

	// ListRecent returns the last limit messages of a session in
	// chronological order.
	ListRecent(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, row *types.ChatMessage) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.SessionID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(row).Error
}

func (r *chatMessageRepo) ListRecent(dbc dbctx.Context, sessionID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []*types.ChatMessage
	if err := t.WithContext(dbc.Ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
