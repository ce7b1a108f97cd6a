package squares

import (
	"context"
	"fmt"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// recordEntry appends one ledger entry inside an existing transaction.
// There is deliberately no update or delete path anywhere in the package:
// corrections are always further entries.
func recordEntry(tx *gorm.DB, playerID uint, poolID *uint, entryType string, amountCent int64, batchRef, description string) error {
	entry := models.LedgerEntry{
		PlayerID:    playerID,
		PoolID:      poolID,
		Type:        entryType,
		AmountCent:  amountCent,
		BatchRef:    batchRef,
		Description: description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return nil
}

// Balance sums the player's entries scoped to one pool, or to the
// unassigned wallet scope when poolID is nil.
func (e *Engine) Balance(ctx context.Context, playerID uint, poolID *uint) (int64, error) {
	return sumEntries(e.db.WithContext(ctx), playerID, poolID, "")
}

// UnassignedCredit sums the player's pool-less credit entries: the wallet
// balance available to apply to any pool.
func (e *Engine) UnassignedCredit(ctx context.Context, playerID uint) (int64, error) {
	return sumEntries(e.db.WithContext(ctx), playerID, nil, models.EntryCredit)
}

// Entries returns the player's full ledger, newest first.
func (e *Engine) Entries(ctx context.Context, playerID uint) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := e.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load ledger entries: %w", err)
	}
	return entries, nil
}

func sumEntries(tx *gorm.DB, playerID uint, poolID *uint, entryType string) (int64, error) {
	q := tx.Model(&models.LedgerEntry{}).Where("player_id = ?", playerID)
	if poolID != nil {
		q = q.Where("pool_id = ?", *poolID)
	} else {
		q = q.Where("pool_id IS NULL")
	}
	if entryType != "" {
		q = q.Where("type = ?", entryType)
	}
	var total int64
	if err := q.Select("COALESCE(SUM(amount_cent), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return total, nil
}

// poolBuyInTotal returns the absolute value of the player's buy_in debits
// in one pool, used to size refunds.
func poolBuyInTotal(tx *gorm.DB, playerID, poolID uint) (int64, error) {
	var total int64
	err := tx.Model(&models.LedgerEntry{}).
		Where("player_id = ? AND pool_id = ? AND type = ?",
			playerID, poolID, models.EntryBuyIn).
		Select("COALESCE(SUM(amount_cent), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum buy-ins: %w", err)
	}
	if total < 0 {
		total = -total
	}
	return total, nil
}
