package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProgress tracks how far a user has read within a content record.
// One row per (user, content); re-reports overwrite the percentage.
type UserProgress struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_content,priority:1" json:"user_id"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_progress_user_content,priority:2" json:"content_id"`

	Percentage   float64 `gorm:"not null;default:0;column:percentage" json:"percentage"`
	LastPosition int     `gorm:"not null;default:0;column:last_position" json:"last_position"`
	Completed    bool    `gorm:"not null;default:false;column:completed" json:"completed"`

	LastReadAt *time.Time `gorm:"column:last_read_at" json:"last_read_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserProgress) TableName() string { return "user_progress" }
