package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the remote cart row; exactly one per user, created lazily on the
// first push.
type Cart struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID          string     `gorm:"column:user_id;type:text;not null;uniqueIndex"`
	PrescriptionURL *string    `gorm:"column:prescription_url;type:text"`
	Items           []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the consumed table name.
func (Cart) TableName() string { return "carts" }
