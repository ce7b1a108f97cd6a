package models

import "time"

// Membership payment statuses.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentDeadbeat  = "deadbeat"
)

// Membership links a player to a pool and tracks what they have paid in.
// Deleted only when the player is removed from the pool.
type Membership struct {
	ID             uint   `gorm:"primaryKey"`
	PoolID         uint   `gorm:"uniqueIndex:idx_pool_player;not null"`
	PlayerID       uint   `gorm:"uniqueIndex:idx_pool_player;not null"`
	Paid           bool   `gorm:"default:false"`
	PaymentStatus  string `gorm:"size:16;not null;default:pending"`
	AmountPaidCent int64  `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
