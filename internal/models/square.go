package models

import "time"

// Square claim statuses.
const (
	SquareAvailable = "available"
	SquarePending   = "pending"
	SquareClaimed   = "claimed"
)

// Square is one cell of a pool grid. Exactly 100 exist per pool, created
// with the pool and never added or removed. PlayerID is nil exactly when
// Status is "available".
type Square struct {
	ID            uint   `gorm:"primaryKey"`
	PoolID        uint   `gorm:"uniqueIndex:idx_pool_cell;not null"`
	Row           int    `gorm:"uniqueIndex:idx_pool_cell;not null"`
	Col           int    `gorm:"uniqueIndex:idx_pool_cell;not null"`
	PlayerID      *uint  `gorm:"index"`
	Status        string `gorm:"size:16;index;not null;default:available"`
	ClaimedAt     *time.Time
	RequestedAt   *time.Time
	ReleasedAt    *time.Time
	AdminOverride bool `gorm:"default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Player *Player `gorm:"constraint:OnDelete:SET NULL"`
}
