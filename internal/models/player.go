package models

import "time"

// Player represents an application user who can hold squares.
type Player struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:64"`
	Admin        bool   `gorm:"default:false"`
	Banned       bool   `gorm:"default:false;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
