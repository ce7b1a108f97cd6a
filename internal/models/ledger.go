package models

import "time"

// Ledger entry types.
const (
	EntryBuyIn  = "buy_in"
	EntryCredit = "credit"
	EntryPayout = "payout"
)

// LedgerEntry is a single signed monetary movement for a player, optionally
// scoped to a pool. Amounts are in cents: buy_in entries are negative,
// payout entries positive, credit entries positive when added to the wallet
// and negative when consumed. Entries are append-only; corrections are
// always additional entries, never edits.
type LedgerEntry struct {
	ID          uint   `gorm:"primaryKey"`
	PlayerID    uint   `gorm:"index;not null"`
	PoolID      *uint  `gorm:"index"` // nil = unassigned wallet scope
	Type        string `gorm:"size:16;index;not null"`
	AmountCent  int64  `gorm:"not null"`
	Description string `gorm:"size:255"`
	BatchRef    string `gorm:"size:36;index"` // groups entries written by one payment call
	CreatedAt   time.Time
}
