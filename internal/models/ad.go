package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Ad struct {
	gorm.Model

	OwnerID     uint           `gorm:"not null;index"`
	BusinessID  *uint          `gorm:"index"`          // Optional link to the owner's business
	Kind        string         `gorm:"not null;index"` // "personnel", "position", "project"
	Title       string         `gorm:"not null"`
	Description string         `gorm:"not null"`
	Region      string         `gorm:"index"`
	Status      string         `gorm:"not null;default:open"` // "open", "closed"
	Details     datatypes.JSON `gorm:"type:jsonb"`            // Kind-specific fields

	// Relationships
	Owner     User         `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Business  *Business    `gorm:"foreignKey:BusinessID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Responses []AdResponse `gorm:"foreignKey:AdID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
