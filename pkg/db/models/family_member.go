package models

import (
	"time"

	"github.com/google/uuid"
)

// FamilyMember is a dependent the user can book services for.
type FamilyMember struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:text;not null;index"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Relation  string    `gorm:"column:relation;type:text;not null"`
	Age       int       `gorm:"column:age;not null"`
	Gender    string    `gorm:"column:gender;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the consumed table name.
func (FamilyMember) TableName() string { return "family_members" }
