package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Listing struct {
	gorm.Model

	SellerID    uint           `gorm:"not null;index"`
	Title       string         `gorm:"not null"`
	Description string         `gorm:"not null"`
	Category    string         `gorm:"index"` // "vehicle", "equipment", "tools", "materials"
	Region      string         `gorm:"index"`
	PriceCents  int64          `gorm:"not null"`
	Status      string         `gorm:"not null;default:active"` // "active", "sold", "withdrawn"
	Photos      datatypes.JSON `gorm:"type:jsonb"`              // Array of public image URLs

	// Relationships
	Seller User `gorm:"foreignKey:SellerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
