package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ModeFullBook     = "full_book"
	ModeSelectedText = "selected_text"
)

// ChatSession groups a user's question/answer exchanges about a book.
// Mode controls retrieval scope: full_book searches everything, selected_text
// restricts answers to the passage the user highlighted.
type ChatSession struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	BookID uuid.UUID `gorm:"type:uuid;not null;index" json:"book_id"`

	Title        string `gorm:"column:title" json:"title,omitempty"`
	Mode         string `gorm:"not null;default:'full_book';column:mode" json:"mode"`
	SelectedText string `gorm:"column:selected_text;type:text" json:"selected_text,omitempty"`

	LastActiveAt time.Time `gorm:"not null;default:now();column:last_active_at;index" json:"last_active_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ChatSession) TableName() string { return "chat_session" }

// ValidMode reports whether mode is a recognized retrieval scope.
func ValidMode(mode string) bool {
	return mode == ModeFullBook || mode == ModeSelectedText
}
