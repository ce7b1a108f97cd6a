package squares

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mattzapanta/squares/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cell is a grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// PaymentResult reports the outcome of one pool's allocation. DebitCent is
// what was actually charged (assigned squares times denomination), never
// the raw payment amount. CreditRemainingCent is money the allocation
// could not spend; it is reported to the caller but not banked as wallet
// credit here. Issuing a credit for it is an explicit follow-up action.
type PaymentResult struct {
	PoolID              uint   `json:"pool_id"`
	WantedCells         int    `json:"wanted_cells"`
	AssignedCells       int    `json:"assigned_cells"`
	Cells               []Cell `json:"cells,omitempty"`
	DebitCent           int64  `json:"debit_cent"`
	CreditRemainingCent int64  `json:"credit_remaining_cent"`
	BatchRef            string `json:"batch_ref"`
}

// RecordPoolPayment converts amountCent into whole squares in one pool.
// wanted = floor(amount/denomination), capped by the player's remaining
// per-player allowance and by current availability. With autoAssign the
// capped count is drawn uniformly at random from the available squares and
// claimed directly, bypassing the approval queue (this is a payment-driven
// administrative path, not a player claim). Exactly one buy_in entry is
// written, for the assigned squares only.
func (e *Engine) RecordPoolPayment(ctx context.Context, poolID, playerID uint, amountCent int64, autoAssign bool, actor Actor) (*PaymentResult, error) {
	if amountCent <= 0 {
		return nil, failf(KindInvalidAmount, "payment amount must be positive")
	}

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
		wanted := int(amountCent / pool.DenominationCent)
		r, err := allocateTx(tx, pool, playerID, wanted, autoAssign, batchRef,
			fmt.Sprintf("buy-in: pool %s", pool.Name))
		if err != nil {
			return err
		}
		r.CreditRemainingCent = amountCent - r.DebitCent
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.auditRecord(&poolID, actor, "payment.pool", map[string]any{
		"player_id": playerID, "amount_cent": amountCent,
		"assigned": res.AssignedCells, "debit_cent": res.DebitCent,
		"batch_ref": batchRef,
	})
	return res, nil
}

// Allocation is one pool's share of a multi-pool payment.
type Allocation struct {
	PoolID     uint `json:"pool_id"`
	Cells      int  `json:"cells"`
	AutoAssign bool `json:"auto_assign"`
}

// MultiPaymentResult aggregates per-pool outcomes. Each pool's write is
// atomic on its own; a zero-sized allocation still appears in Pools.
type MultiPaymentResult struct {
	Pools         []PaymentResult `json:"pools"`
	TotalAssigned int             `json:"total_assigned"`
	SpentCent     int64           `json:"spent_cent"`
	RemainingCent int64           `json:"remaining_cent"`
	BatchRef      string          `json:"batch_ref"`
}

// RecordMultiPoolPayment splits totalCent across explicit allocations.
// Memberships are auto-added where absent. The running remainder is
// informational only; it is not persisted as credit.
func (e *Engine) RecordMultiPoolPayment(ctx context.Context, playerID uint, totalCent int64, allocs []Allocation, actor Actor) (*MultiPaymentResult, error) {
	if totalCent <= 0 {
		return nil, failf(KindInvalidAmount, "payment amount must be positive")
	}
	if _, err := loadPlayer(e.db.WithContext(ctx), playerID); err != nil {
		return nil, err
	}

	batchRef := uuid.New().String()
	out := &MultiPaymentResult{RemainingCent: totalCent, BatchRef: batchRef}
	for _, alloc := range allocs {
		alloc := alloc
		var r *PaymentResult
		err := e.withPool(ctx, alloc.PoolID, func(tx *gorm.DB) error {
			pool, err := loadPool(tx, alloc.PoolID)
			if err != nil {
				return err
			}
			if _, err := ensureMembership(tx, alloc.PoolID, playerID); err != nil {
				return err
			}
			wanted := alloc.Cells
			if affordable := int(out.RemainingCent / pool.DenominationCent); wanted > affordable {
				wanted = affordable
			}
			r, err = allocateTx(tx, pool, playerID, wanted, alloc.AutoAssign, batchRef,
				fmt.Sprintf("buy-in: pool %s (multi)", pool.Name))
			return err
		})
		if err != nil {
			return nil, err
		}
		out.Pools = append(out.Pools, *r)
		out.TotalAssigned += r.AssignedCells
		out.SpentCent += r.DebitCent
		out.RemainingCent -= r.DebitCent
	}

	e.auditRecord(nil, actor, "payment.multi_pool", map[string]any{
		"player_id": playerID, "total_cent": totalCent,
		"assigned": out.TotalAssigned, "spent_cent": out.SpentCent,
		"batch_ref": batchRef,
	})
	return out, nil
}

// Distribution strategies.
const (
	StrategySequential = "sequential"
	StrategyEven       = "even"
)

// DistributeOptions tunes AutoDistribute.
type DistributeOptions struct {
	PreferredPools []uint
	Strategy       string // sequential (default) or even
}

// AutoDistribute spreads totalCent across the player's open pools.
// Candidates are the open pools the player already belongs to, then any
// explicitly preferred pools, each group ordered by nearest game date.
// sequential walks candidates spending as much as each allows; even splits
// the total evenly across member pools and runs the sequential single-pool
// logic on each share independently.
func (e *Engine) AutoDistribute(ctx context.Context, playerID uint, totalCent int64, opts DistributeOptions, actor Actor) (*MultiPaymentResult, error) {
	if totalCent <= 0 {
		return nil, failf(KindInvalidAmount, "payment amount must be positive")
	}
	if _, err := loadPlayer(e.db.WithContext(ctx), playerID); err != nil {
		return nil, err
	}
	strategy := opts.Strategy
	if strategy == "" {
		strategy = StrategySequential
	}
	if strategy != StrategySequential && strategy != StrategyEven {
		return nil, failf(KindInvalidStatus, "unknown strategy %q", strategy)
	}

	candidates, err := e.distributionCandidates(ctx, playerID, opts.PreferredPools, strategy)
	if err != nil {
		return nil, err
	}

	batchRef := uuid.New().String()
	out := &MultiPaymentResult{RemainingCent: totalCent, BatchRef: batchRef}

	var share int64
	if strategy == StrategyEven && len(candidates) > 0 {
		share = totalCent / int64(len(candidates))
	}

	for _, poolID := range candidates {
		budget := out.RemainingCent
		if strategy == StrategyEven {
			budget = share
		}
		if budget <= 0 {
			break
		}
		var r *PaymentResult
		err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
			pool, err := loadPool(tx, poolID)
			if err != nil {
				return err
			}
			if _, err := ensureMembership(tx, poolID, playerID); err != nil {
				return err
			}
			wanted := int(budget / pool.DenominationCent)
			r, err = allocateTx(tx, pool, playerID, wanted, true, batchRef,
				fmt.Sprintf("buy-in: pool %s (auto)", pool.Name))
			return err
		})
		if err != nil {
			return nil, err
		}
		out.Pools = append(out.Pools, *r)
		out.TotalAssigned += r.AssignedCells
		out.SpentCent += r.DebitCent
		out.RemainingCent -= r.DebitCent
	}

	e.auditRecord(nil, actor, "payment.auto_distribute", map[string]any{
		"player_id": playerID, "total_cent": totalCent, "strategy": strategy,
		"assigned": out.TotalAssigned, "spent_cent": out.SpentCent,
		"batch_ref": batchRef,
	})
	return out, nil
}

// distributionCandidates returns candidate pool ids: open member pools by
// nearest game date, then preferred non-member open pools. The even
// strategy restricts to member pools.
func (e *Engine) distributionCandidates(ctx context.Context, playerID uint, preferred []uint, strategy string) ([]uint, error) {
	db := e.db.WithContext(ctx)

	var memberPools []models.Pool
	err := db.Model(&models.Pool{}).
		Joins("JOIN memberships ON memberships.pool_id = pools.id AND memberships.player_id = ?", playerID).
		Where("pools.status = ?", models.PoolStatusOpen).
		Order("pools.game_date ASC, pools.id ASC").
		Find(&memberPools).Error
	if err != nil {
		return nil, fmt.Errorf("load member pools: %w", err)
	}

	ids := make([]uint, 0, len(memberPools)+len(preferred))
	seen := make(map[uint]bool, len(memberPools))
	for _, p := range memberPools {
		ids = append(ids, p.ID)
		seen[p.ID] = true
	}
	if strategy == StrategyEven {
		return ids, nil
	}

	var extra []uint
	for _, id := range preferred {
		if !seen[id] {
			extra = append(extra, id)
			seen[id] = true
		}
	}
	if len(extra) > 0 {
		var pools []models.Pool
		err := db.Where("id IN ? AND status = ?", extra, models.PoolStatusOpen).
			Order("game_date ASC, id ASC").
			Find(&pools).Error
		if err != nil {
			return nil, fmt.Errorf("load preferred pools: %w", err)
		}
		for _, p := range pools {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

// allocateTx caps wanted by the player's remaining allowance and by
// availability, optionally assigns that many random available squares
// directly to claimed, writes the single buy_in entry, and updates the
// membership's payment standing. Runs entirely inside the caller's
// transaction so money and square state cannot diverge.
func allocateTx(tx *gorm.DB, pool *models.Pool, playerID uint, wanted int, autoAssign bool, batchRef, description string) (*PaymentResult, error) {
	res := &PaymentResult{PoolID: pool.ID, WantedCells: wanted, BatchRef: batchRef}
	if wanted < 0 {
		wanted = 0
	}

	claimed, err := countSquares(tx, pool.ID, playerID, models.SquareClaimed)
	if err != nil {
		return nil, err
	}
	maxAllowed := pool.MaxPerPlayer - int(claimed)
	if maxAllowed < 0 {
		maxAllowed = 0
	}
	if wanted > maxAllowed {
		wanted = maxAllowed
	}

	var available []models.Square
	err = tx.Where("pool_id = ? AND status = ?", pool.ID, models.SquareAvailable).
		Order("row ASC, col ASC").
		Find(&available).Error
	if err != nil {
		return nil, fmt.Errorf("load available squares: %w", err)
	}
	if wanted > len(available) {
		wanted = len(available)
	}

	if autoAssign && wanted > 0 {
		if err := cryptoShuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		}); err != nil {
			return nil, err
		}
		picked := available[:wanted]
		ids := make([]uint, len(picked))
		for i := range picked {
			ids[i] = picked[i].ID
			res.Cells = append(res.Cells, Cell{Row: picked[i].Row, Col: picked[i].Col})
		}
		err = tx.Model(&models.Square{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"status":         models.SquareClaimed,
				"player_id":      playerID,
				"claimed_at":     time.Now(),
				"released_at":    nil,
				"admin_override": false,
			}).Error
		if err != nil {
			return nil, fmt.Errorf("assign squares: %w", err)
		}
		sort.Slice(res.Cells, func(i, j int) bool {
			if res.Cells[i].Row != res.Cells[j].Row {
				return res.Cells[i].Row < res.Cells[j].Row
			}
			return res.Cells[i].Col < res.Cells[j].Col
		})
		res.AssignedCells = wanted
	}

	res.DebitCent = int64(res.AssignedCells) * pool.DenominationCent
	if res.DebitCent > 0 {
		poolID := pool.ID
		if err := recordEntry(tx, playerID, &poolID, models.EntryBuyIn,
			-res.DebitCent, batchRef, description); err != nil {
			return nil, err
		}
	}

	if err := refreshPaymentStanding(tx, pool.ID, playerID, res.DebitCent); err != nil {
		return nil, err
	}
	return res, nil
}

// refreshPaymentStanding bumps the membership's cumulative paid amount and
// marks it confirmed once the player holds any claimed squares.
func refreshPaymentStanding(tx *gorm.DB, poolID, playerID uint, debitCent int64) error {
	m, err := loadMembership(tx, poolID, playerID)
	if err != nil {
		return err
	}
	m.AmountPaidCent += debitCent

	claimed, err := countSquares(tx, poolID, playerID, models.SquareClaimed)
	if err != nil {
		return err
	}
	if claimed > 0 && m.AmountPaidCent > 0 {
		m.Paid = true
		m.PaymentStatus = models.PaymentConfirmed
	}
	if err := tx.Save(m).Error; err != nil {
		return fmt.Errorf("save membership: %w", err)
	}
	return nil
}
