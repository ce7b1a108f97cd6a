package models

import "time"

// Winner is the square matched to a period score under the locked digit
// mapping. PlayerID is nil when the winning square was never claimed.
// Winner rows are deleted when a pool is unlocked, because they are
// meaningless without the digit mapping that produced them.
type Winner struct {
	ID        uint   `gorm:"primaryKey"`
	PoolID    uint   `gorm:"uniqueIndex:idx_pool_period;not null"`
	Period    string `gorm:"uniqueIndex:idx_pool_period;size:32;not null"`
	Row       int    `gorm:"not null"`
	Col       int    `gorm:"not null"`
	PlayerID  *uint  `gorm:"index"`
	HomeScore int    `gorm:"not null"`
	AwayScore int    `gorm:"not null"`
	CreatedAt time.Time
}
