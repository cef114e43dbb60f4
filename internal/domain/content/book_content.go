package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ContentTypeText    = "text"
	ContentTypeCode    = "code"
	ContentTypeFigure  = "figure"
	ContentTypeHeading = "heading"
)

// BookContent is one retrievable chunk of a textbook. Chunks keep their
// position (chapter, chunk index, page) so neighbors can be reassembled
// into a context window around a match.
type BookContent struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_book_content_position,priority:1" json:"book_id"`

	Chapter      int    `gorm:"not null;column:chapter;uniqueIndex:idx_book_content_position,priority:2" json:"chapter"`
	SectionTitle string `gorm:"column:section_title" json:"section_title"`
	ChunkIndex   int    `gorm:"not null;column:chunk_index;uniqueIndex:idx_book_content_position,priority:3" json:"chunk_index"`
	PageNumber   int    `gorm:"column:page_number" json:"page_number"`

	ContentText string `gorm:"column:content_text;type:text;not null" json:"content_text"`
	ContentType string `gorm:"not null;default:'text';column:content_type" json:"content_type"`
	Language    string `gorm:"not null;default:'en';column:language" json:"language"`

	// ID of the vector stored for this chunk; empty until embedded.
	EmbeddingID string `gorm:"column:embedding_id;index" json:"embedding_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (BookContent) TableName() string { return "book_content" }
