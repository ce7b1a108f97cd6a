package models

import "time"

// Pool lifecycle statuses.
const (
	PoolStatusOpen       = "open"
	PoolStatusLocked     = "locked"
	PoolStatusInProgress = "in_progress"
	PoolStatusFinal      = "final"
	PoolStatusCancelled  = "cancelled"
	PoolStatusSuspended  = "suspended"
)

// Pool is a single 10x10 squares grid with its configuration.
// Digit strings are empty while the pool is open; once locked each holds
// a 10-character permutation of "0123456789" (HomeDigits maps rows,
// AwayDigits maps columns).
type Pool struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:128;not null"`
	DenominationCent  int64  `gorm:"not null"` // price of one square, in cents
	MaxPerPlayer      int    `gorm:"not null"`
	ApprovalThreshold int    `gorm:"not null"`
	Status            string `gorm:"size:16;index;not null;default:open"`
	HomeDigits        string `gorm:"size:10"`
	AwayDigits        string `gorm:"size:10"`
	LockedAt          *time.Time
	GameDate          *time.Time `gorm:"index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Locked reports whether the digit mapping has been revealed.
func (p *Pool) Locked() bool {
	return p.HomeDigits != "" && p.AwayDigits != ""
}
