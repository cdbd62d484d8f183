package models

import "gorm.io/gorm"

type AdResponse struct {
	gorm.Model

	AdID    uint   `gorm:"not null;uniqueIndex:idx_ad_responder"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_ad_responder"`
	Message string `gorm:"not null"`

	// Delivery outcome of the notification email to the ad owner.
	// The response row persists even when the send fails.
	EmailStatus string `gorm:"not null;default:pending"` // "pending", "sent", "failed"

	// Relationships
	Ad   Ad   `gorm:"foreignKey:AdID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
