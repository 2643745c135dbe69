package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one priced line scoped to a cart. Display-only fields travel
// in the opaque metadata blob so the priced core stays queryable.
type CartItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID        uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	ItemID        string          `gorm:"column:item_id;type:text;not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	UnitListPrice decimal.Decimal `gorm:"column:unit_list_price;type:numeric(12,2);not null"`
	Metadata      string          `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the consumed table name.
func (CartItem) TableName() string { return "cart_items" }
