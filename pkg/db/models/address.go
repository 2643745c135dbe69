package models

import (
	"time"

	"github.com/citymeds/citymeds-go/pkg/enums"
	"github.com/google/uuid"
)

// Address is a saved delivery address. At most one row per user carries
// is_default = true; the profile synchronizer enforces it two-phase.
type Address struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string           `gorm:"column:user_id;type:text;not null;index"`
	Tag       enums.AddressTag `gorm:"column:tag;type:text;not null;default:'Home'"`
	Line1     string           `gorm:"column:line1;type:text;not null"`
	Line2     string           `gorm:"column:line2;type:text"`
	City      string           `gorm:"column:city;type:text;not null"`
	Pincode   string           `gorm:"column:pincode;type:text;not null"`
	IsDefault bool             `gorm:"column:is_default;not null;default:false"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the consumed table name.
func (Address) TableName() string { return "addresses" }
