package squares

import (
	"context"
	"fmt"
	"time"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// ClaimResult reports the outcome of a single-square operation.
type ClaimResult struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Status   string `json:"status"`
	Override bool   `json:"override,omitempty"`
}

// Claim attempts to take one square for playerID. Depending on the
// player's already-claimed count versus the pool's approval threshold the
// square lands as claimed or pending. Admin actors bypass the open-status
// check and the approval queue; a claim placed while the pool is not open
// is flagged as an admin override.
func (e *Engine) Claim(ctx context.Context, poolID uint, row, col int, playerID uint, actor Actor) (*ClaimResult, error) {
	var res ClaimResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		pol := actor.Policy()
		if !pol.BypassOpenCheck && pool.Status != models.PoolStatusOpen {
			return failf(KindPoolNotOpen, "pool is %s", pool.Status)
		}

		player, err := loadPlayer(tx, playerID)
		if err != nil {
			return err
		}
		if player.Banned {
			return failf(KindBanned, "player %s is banned", player.Username)
		}
		if _, err := loadMembership(tx, poolID, playerID); err != nil {
			return err
		}

		sq, err := loadSquare(tx, poolID, row, col)
		if err != nil {
			return err
		}
		if sq.Status != models.SquareAvailable {
			return failf(KindNotAvailable, "square (%d,%d) is %s", row, col, sq.Status)
		}

		held, err := countSquares(tx, poolID, playerID, models.SquareClaimed, models.SquarePending)
		if err != nil {
			return err
		}
		if !pol.BypassLimit && held >= int64(pool.MaxPerPlayer) {
			return failf(KindLimitReached, "player already holds %d of %d squares", held, pool.MaxPerPlayer)
		}

		claimed, err := countSquares(tx, poolID, playerID, models.SquareClaimed)
		if err != nil {
			return err
		}

		// fresh tenancy: nothing from a previous occupant may survive
		now := time.Now()
		sq.PlayerID = &playerID
		sq.ReleasedAt = nil
		sq.AdminOverride = false
		if !pol.BypassApproval && claimed >= int64(pool.ApprovalThreshold) {
			sq.Status = models.SquarePending
			sq.RequestedAt = &now
		} else {
			sq.Status = models.SquareClaimed
			sq.ClaimedAt = &now
			if pol.BypassOpenCheck && pool.Status != models.PoolStatusOpen {
				sq.AdminOverride = true
			}
		}
		if err := tx.Save(sq).Error; err != nil {
			return fmt.Errorf("save square: %w", err)
		}
		res = ClaimResult{Row: row, Col: col, Status: sq.Status, Override: sq.AdminOverride}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.auditRecord(&poolID, actor, "claim.request", map[string]any{
		"row": row, "col": col, "player_id": playerID, "status": res.Status,
	})
	return &res, nil
}

// Approve flips a pending square to claimed.
func (e *Engine) Approve(ctx context.Context, poolID uint, row, col int, actor Actor) (*ClaimResult, error) {
	var res ClaimResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		if _, err := loadPool(tx, poolID); err != nil {
			return err
		}
		sq, err := loadSquare(tx, poolID, row, col)
		if err != nil {
			return err
		}
		if sq.Status != models.SquarePending {
			return failf(KindNotPending, "square (%d,%d) is %s", row, col, sq.Status)
		}
		now := time.Now()
		sq.Status = models.SquareClaimed
		sq.ClaimedAt = &now
		if err := tx.Save(sq).Error; err != nil {
			return fmt.Errorf("save square: %w", err)
		}
		res = ClaimResult{Row: row, Col: col, Status: sq.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.auditRecord(&poolID, actor, "claim.approve", map[string]any{"row": row, "col": col})
	return &res, nil
}

// Reject returns a pending square to available, clearing the occupant and
// the request time.
func (e *Engine) Reject(ctx context.Context, poolID uint, row, col int, actor Actor) (*ClaimResult, error) {
	res, err := e.clearPending(ctx, poolID, row, col, nil)
	if err != nil {
		return nil, err
	}
	e.auditRecord(&poolID, actor, "claim.reject", map[string]any{"row": row, "col": col})
	return res, nil
}

// CancelPending is Reject restricted to the requesting player: only the
// square's current occupant may cancel their own pending request.
func (e *Engine) CancelPending(ctx context.Context, poolID uint, row, col int, playerID uint) (*ClaimResult, error) {
	res, err := e.clearPending(ctx, poolID, row, col, &playerID)
	if err != nil {
		return nil, err
	}
	actor := Actor{PlayerID: playerID}
	e.auditRecord(&poolID, actor, "claim.cancel", map[string]any{"row": row, "col": col})
	return res, nil
}

func (e *Engine) clearPending(ctx context.Context, poolID uint, row, col int, requester *uint) (*ClaimResult, error) {
	var res ClaimResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		if _, err := loadPool(tx, poolID); err != nil {
			return err
		}
		sq, err := loadSquare(tx, poolID, row, col)
		if err != nil {
			return err
		}
		if sq.Status != models.SquarePending {
			return failf(KindNotPending, "square (%d,%d) is %s", row, col, sq.Status)
		}
		if requester != nil && (sq.PlayerID == nil || *sq.PlayerID != *requester) {
			return failf(KindNotRequester, "square (%d,%d) was not requested by player %d", row, col, *requester)
		}
		sq.Status = models.SquareAvailable
		sq.PlayerID = nil
		sq.RequestedAt = nil
		if err := tx.Save(sq).Error; err != nil {
			return fmt.Errorf("save square: %w", err)
		}
		res = ClaimResult{Row: row, Col: col, Status: sq.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// BulkApprove approves every pending square the player holds in the pool,
// in one transaction. Fails when none exist.
func (e *Engine) BulkApprove(ctx context.Context, poolID, playerID uint, actor Actor) (int, error) {
	n, err := e.bulkPending(ctx, poolID, playerID, true)
	if err != nil {
		return 0, err
	}
	e.auditRecord(&poolID, actor, "claim.bulk_approve", map[string]any{
		"player_id": playerID, "count": n,
	})
	return n, nil
}

// BulkReject rejects every pending square the player holds in the pool,
// in one transaction. Fails when none exist.
func (e *Engine) BulkReject(ctx context.Context, poolID, playerID uint, actor Actor) (int, error) {
	n, err := e.bulkPending(ctx, poolID, playerID, false)
	if err != nil {
		return 0, err
	}
	e.auditRecord(&poolID, actor, "claim.bulk_reject", map[string]any{
		"player_id": playerID, "count": n,
	})
	return n, nil
}

func (e *Engine) bulkPending(ctx context.Context, poolID, playerID uint, approve bool) (int, error) {
	var count int
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		if _, err := loadPool(tx, poolID); err != nil {
			return err
		}
		pending, err := countSquares(tx, poolID, playerID, models.SquarePending)
		if err != nil {
			return err
		}
		if pending == 0 {
			return failf(KindNothingPending, "player %d has no pending squares", playerID)
		}

		// one statement over the player's pending squares, not cell-by-cell
		q := tx.Model(&models.Square{}).
			Where("pool_id = ? AND player_id = ? AND status = ?",
				poolID, playerID, models.SquarePending)
		now := time.Now()
		var updates map[string]any
		if approve {
			updates = map[string]any{
				"status":     models.SquareClaimed,
				"claimed_at": now,
			}
		} else {
			updates = map[string]any{
				"status":       models.SquareAvailable,
				"player_id":    nil,
				"requested_at": nil,
			}
		}
		if err := q.Updates(updates).Error; err != nil {
			return fmt.Errorf("update pending squares: %w", err)
		}
		count = int(pending)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Release frees one square regardless of whether it is claimed or pending.
// The release is flagged as an override when the pool is not open.
func (e *Engine) Release(ctx context.Context, poolID uint, row, col int, actor Actor) (*ClaimResult, error) {
	var res ClaimResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		sq, err := loadSquare(tx, poolID, row, col)
		if err != nil {
			return err
		}
		if sq.Status == models.SquareAvailable {
			return failf(KindNotOccupied, "square (%d,%d) is not occupied", row, col)
		}
		now := time.Now()
		sq.Status = models.SquareAvailable
		sq.PlayerID = nil
		sq.ClaimedAt = nil
		sq.RequestedAt = nil
		sq.ReleasedAt = &now
		sq.AdminOverride = pool.Status != models.PoolStatusOpen
		if err := tx.Save(sq).Error; err != nil {
			return fmt.Errorf("save square: %w", err)
		}
		res = ClaimResult{Row: row, Col: col, Status: sq.Status, Override: sq.AdminOverride}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.auditRecord(&poolID, actor, "claim.release", map[string]any{"row": row, "col": col})
	return &res, nil
}

// ReleaseAll frees every square the player holds in the pool, whatever the
// status, and returns how many were released. Used when removing or
// banning a player.
func (e *Engine) ReleaseAll(ctx context.Context, poolID, playerID uint, actor Actor) (int, error) {
	var count int
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		n, err := releaseAllTx(tx, pool, playerID)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.auditRecord(&poolID, actor, "claim.release_all", map[string]any{
		"player_id": playerID, "count": count,
	})
	return count, nil
}

// releaseAllTx frees all of the player's squares inside an existing
// transaction; RemovePlayer reuses it alongside the refund.
func releaseAllTx(tx *gorm.DB, pool *models.Pool, playerID uint) (int, error) {
	held, err := countSquares(tx, pool.ID, playerID,
		models.SquareClaimed, models.SquarePending)
	if err != nil {
		return 0, err
	}
	if held == 0 {
		return 0, nil
	}
	now := time.Now()
	err = tx.Model(&models.Square{}).
		Where("pool_id = ? AND player_id = ?", pool.ID, playerID).
		Updates(map[string]any{
			"status":         models.SquareAvailable,
			"player_id":      nil,
			"claimed_at":     nil,
			"requested_at":   nil,
			"released_at":    now,
			"admin_override": pool.Status != models.PoolStatusOpen,
		}).Error
	if err != nil {
		return 0, fmt.Errorf("release squares: %w", err)
	}
	return int(held), nil
}

func countSquares(tx *gorm.DB, poolID, playerID uint, statuses ...string) (int64, error) {
	var n int64
	err := tx.Model(&models.Square{}).
		Where("pool_id = ? AND player_id = ? AND status IN ?", poolID, playerID, statuses).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count squares: %w", err)
	}
	return n, nil
}
