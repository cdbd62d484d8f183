package models

import (
	"time"

	"gorm.io/gorm"
)

type Subscription struct {
	gorm.Model

	UserID uint   `gorm:"uniqueIndex;not null"`
	Plan   string `gorm:"not null;default:free"`   // "free", "pro"
	Status string `gorm:"not null;default:active"` // "active", "past_due", "canceled"

	// Identifiers assigned by the payment provider. Empty on the free plan.
	ProviderCustomerID     string `gorm:"index"`
	ProviderSubscriptionID string `gorm:"index"`
	CurrentPeriodEnd       *time.Time

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
