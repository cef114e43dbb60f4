package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Role    string `gorm:"column:role;not null;index" json:"role"`
	Content string `gorm:"column:content;type:text;not null;default:''" json:"content"`

	// Top relevance score of the retrieved chunks backing an assistant answer.
	RelevanceScore float64 `gorm:"column:relevance_score;not null;default:0" json:"relevance_score"`

	// BookContent IDs cited in the answer, in rank order.
	CitedContentIDs datatypes.JSON `gorm:"type:jsonb;column:cited_content_ids;not null;default:'[]'" json:"cited_content_ids,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatMessage) TableName() string { return "chat_message" }
