package squares

import (
	"context"
	"fmt"

	"github.com/mattzapanta/squares/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddCredit deposits amountCent into the player's wallet: a positive
// credit entry with no pool association.
func (e *Engine) AddCredit(ctx context.Context, playerID uint, amountCent int64, description string, actor Actor) error {
	if amountCent <= 0 {
		return failf(KindInvalidAmount, "credit amount must be positive")
	}
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadPlayer(tx, playerID); err != nil {
			return err
		}
		return recordEntry(tx, playerID, nil, models.EntryCredit,
			amountCent, uuid.New().String(), description)
	})
	if err != nil {
		return err
	}
	e.auditRecord(nil, actor, "credit.add", map[string]any{
		"player_id": playerID, "amount_cent": amountCent,
	})
	return nil
}

// ApplyCredit spends wallet credit in one pool: it verifies the unassigned
// balance covers amountCent, writes the negative consuming credit entry,
// and runs the single-pool payment flow with that amount, all in one
// transaction.
func (e *Engine) ApplyCredit(ctx context.Context, poolID, playerID uint, amountCent int64, actor Actor) (*PaymentResult, error) {
	return e.payWithCredit(ctx, poolID, playerID, amountCent, 0, actor, "credit.apply")
}

// CombinedPayment spends wallet credit plus new money in one pool. The
// credit portion is deducted from the wallet first; the payment flow then
// runs with the combined total.
func (e *Engine) CombinedPayment(ctx context.Context, poolID, playerID uint, creditCent, newCent int64, actor Actor) (*PaymentResult, error) {
	if newCent < 0 {
		return nil, failf(KindInvalidAmount, "payment amount cannot be negative")
	}
	return e.payWithCredit(ctx, poolID, playerID, creditCent, newCent, actor, "credit.combined")
}

func (e *Engine) payWithCredit(ctx context.Context, poolID, playerID uint, creditCent, newCent int64, actor Actor, action string) (*PaymentResult, error) {
	if creditCent <= 0 {
		return nil, failf(KindInvalidAmount, "credit amount must be positive")
	}
	totalCent := creditCent + newCent

	batchRef := uuid.New().String()
	var res *PaymentResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		if _, err := loadPlayer(tx, playerID); err != nil {
			return err
		}
		if _, err := loadMembership(tx, poolID, playerID); err != nil {
			return err
		}

		wallet, err := sumEntries(tx, playerID, nil, models.EntryCredit)
		if err != nil {
			return err
		}
		if wallet < creditCent {
			return failf(KindInsufficientCredit,
				"wallet holds %d cents, %d requested", wallet, creditCent)
		}
		if err := recordEntry(tx, playerID, nil, models.EntryCredit,
			-creditCent, batchRef,
			fmt.Sprintf("credit applied to pool %s", pool.Name)); err != nil {
			return err
		}

		wanted := int(totalCent / pool.DenominationCent)
		r, err := allocateTx(tx, pool, playerID, wanted, true, batchRef,
			fmt.Sprintf("buy-in: pool %s", pool.Name))
		if err != nil {
			return err
		}
		r.CreditRemainingCent = totalCent - r.DebitCent
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.auditRecord(&poolID, actor, action, map[string]any{
		"player_id": playerID, "credit_cent": creditCent, "new_cent": newCent,
		"assigned": res.AssignedCells, "batch_ref": batchRef,
	})
	return res, nil
}

// RemovalResult reports what RemovePlayer freed and refunded.
type RemovalResult struct {
	Released   int   `json:"released"`
	RefundCent int64 `json:"refund_cent"`
}

// RemovePlayer takes a player out of a pool: every square they hold is
// released, the membership is deleted, and whatever they had bought in is
// refunded to their wallet as unassigned credit.
func (e *Engine) RemovePlayer(ctx context.Context, poolID, playerID uint, actor Actor) (*RemovalResult, error) {
	var res RemovalResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		m, err := loadMembership(tx, poolID, playerID)
		if err != nil {
			return err
		}

		paid, err := poolBuyInTotal(tx, playerID, poolID)
		if err != nil {
			return err
		}
		released, err := releaseAllTx(tx, pool, playerID)
		if err != nil {
			return err
		}
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("delete membership: %w", err)
		}
		if paid > 0 {
			if err := recordEntry(tx, playerID, nil, models.EntryCredit,
				paid, uuid.New().String(),
				fmt.Sprintf("refund from pool %s", pool.Name)); err != nil {
				return err
			}
		}
		res = RemovalResult{Released: released, RefundCent: paid}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.auditRecord(&poolID, actor, "pool.remove_player", map[string]any{
		"player_id": playerID, "released": res.Released, "refund_cent": res.RefundCent,
	})
	return &res, nil
}
