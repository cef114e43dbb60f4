package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranslationCache persists generated translations so repeat requests skip
// the model call. SourceHash ties the entry to the exact source text; when
// the content is re-ingested with different text the entry is invalid.
type TranslationCache struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_translation_cache_content_lang,priority:1" json:"content_id"`
	Language  string    `gorm:"not null;column:language;uniqueIndex:idx_translation_cache_content_lang,priority:2" json:"language"`

	TranslatedText string `gorm:"column:translated_text;type:text;not null" json:"translated_text"`
	SourceHash     string `gorm:"not null;column:source_hash" json:"source_hash"`

	HitCount  int64     `gorm:"not null;default:0;column:hit_count" json:"hit_count"`
	ExpiresAt time.Time `gorm:"not null;column:expires_at;index" json:"expires_at"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TranslationCache) TableName() string { return "translation_cache" }
