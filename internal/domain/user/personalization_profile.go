package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PersonalizationProfile stores the learner attributes used to adapt content:
// experience levels, learning style, interests. Attributes are free-form JSON
// so the frontend can evolve the questionnaire without migrations.
type PersonalizationProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	Attributes datatypes.JSON `gorm:"column:attributes;type:jsonb;not null;default:'{}'" json:"attributes"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PersonalizationProfile) TableName() string { return "personalization_profile" }
