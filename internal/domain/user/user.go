package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanFree       = "free"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string    `gorm:"not null;column:password" json:"-"`
	FirstName string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName  string    `gorm:"not null;column:last_name" json:"last_name"`

	SoftwareBackground string `gorm:"column:software_background" json:"software_background"`
	HardwareBackground string `gorm:"column:hardware_background" json:"hardware_background"`
	PreferredLanguage  string `gorm:"not null;default:'en';column:preferred_language" json:"preferred_language"`
	Plan               string `gorm:"not null;default:'free';column:plan;index" json:"plan"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

// ValidPlan reports whether plan is one of the known subscription tiers.
func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}
