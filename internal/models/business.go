package models

import "gorm.io/gorm"

type Business struct {
	gorm.Model

	OwnerID     uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	Phone       string
	Email       string
	Website     string
	LogoURL     string

	// Postal address as entered by the owner
	Street     string
	Suburb     string
	City       string `gorm:"not null"`
	Region     string `gorm:"index"`
	PostalCode string

	// Geocoding outcome. Latitude/Longitude are nil until a lookup succeeds.
	Latitude         *float64
	Longitude        *float64
	FormattedAddress string
	GeocodingStatus  string `gorm:"not null;default:pending"` // "pending", "ok", "failed"
	GeocodingError   string

	// Relationships
	Owner User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Ads   []Ad `gorm:"foreignKey:BusinessID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
