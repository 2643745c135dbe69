package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the remote user profile row; one per authenticated user.
type Profile struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      string    `gorm:"column:user_id;type:text;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;type:text"`
	Email       string    `gorm:"column:email;type:text"`
	Gender      string    `gorm:"column:gender;type:text"`
	DateOfBirth string    `gorm:"column:date_of_birth;type:text"`
	BloodGroup  string    `gorm:"column:blood_group;type:text"`
	AvatarURL   string    `gorm:"column:avatar_url;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the consumed table name.
func (Profile) TableName() string { return "profiles" }
