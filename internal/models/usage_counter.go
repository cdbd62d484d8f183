package models

import (
	"time"

	"gorm.io/gorm"
)

// UsageCounter tracks how many times a user performed a limited action
// within a billing period. Rows key on (user, action, period start) so a
// new period starts from a fresh counter.
type UsageCounter struct {
	gorm.Model

	UserID      uint      `gorm:"not null;uniqueIndex:idx_user_action_period"`
	Action      string    `gorm:"not null;uniqueIndex:idx_user_action_period"` // "ad_response", "open_ad", "listing"
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_user_action_period"`
	Count       int       `gorm:"not null;default:0"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
