package models

import "gorm.io/gorm"

type Favourite struct {
	gorm.Model

	UserID     uint   `gorm:"not null;uniqueIndex:idx_user_target"`
	TargetType string `gorm:"not null;uniqueIndex:idx_user_target"` // "ad", "listing"
	TargetID   uint   `gorm:"not null;uniqueIndex:idx_user_target"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
