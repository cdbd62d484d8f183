package models

import "gorm.io/gorm"

type Profile struct {
	gorm.Model

	UserID    uint   `gorm:"uniqueIndex;not null"`
	Trade     string // "builder", "electrician", "plumber", etc.
	Region    string
	Phone     string
	Bio       string
	AvatarURL string

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
