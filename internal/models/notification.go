package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model

	UserID  uint   `gorm:"not null;index"`
	Kind    string `gorm:"not null"` // "ad_response", "listing_contact", "billing"
	Message string `gorm:"not null"`
	ReadAt  *time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
