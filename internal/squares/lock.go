package squares

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// LockResult carries the digit permutations revealed at lock time.
// HomeDigits maps rows; AwayDigits maps columns. Position i in a slice is
// the digit assigned to row/column i.
type LockResult struct {
	HomeDigits []int     `json:"home_digits"`
	AwayDigits []int     `json:"away_digits"`
	LockedAt   time.Time `json:"locked_at"`
}

// Lock freezes square assignment and reveals the random digit mapping.
// It fails while any square is still pending, reporting the pending count
// so the caller can resolve the queue first.
func (e *Engine) Lock(ctx context.Context, poolID uint, actor Actor) (*LockResult, error) {
	var res LockResult
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		if pool.Status != models.PoolStatusOpen {
			return failf(KindPoolNotOpen, "pool is %s", pool.Status)
		}

		var pending int64
		err = tx.Model(&models.Square{}).
			Where("pool_id = ? AND status = ?", poolID, models.SquarePending).
			Count(&pending).Error
		if err != nil {
			return fmt.Errorf("count pending: %w", err)
		}
		if pending > 0 {
			return failf(KindPendingSquares, "%d squares are still pending approval", pending)
		}

		home, err := shuffledDigits()
		if err != nil {
			return err
		}
		away, err := shuffledDigits()
		if err != nil {
			return err
		}

		now := time.Now()
		pool.Status = models.PoolStatusLocked
		pool.HomeDigits = digitsString(home)
		pool.AwayDigits = digitsString(away)
		pool.LockedAt = &now
		if err := tx.Save(pool).Error; err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
		res = LockResult{HomeDigits: home, AwayDigits: away, LockedAt: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.auditRecord(&poolID, actor, "pool.lock", map[string]any{
		"home_digits": res.HomeDigits, "away_digits": res.AwayDigits,
	})
	return &res, nil
}

// Unlock reopens a pool that is not final. It clears both digit
// permutations and deletes any stored winners, because those are
// meaningless without the mapping. A later Lock generates fresh digits;
// the old mapping is never reused.
func (e *Engine) Unlock(ctx context.Context, poolID uint, actor Actor) error {
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		if pool.Status == models.PoolStatusFinal {
			return failf(KindPoolFinal, "pool is final and cannot be unlocked")
		}

		pool.Status = models.PoolStatusOpen
		pool.HomeDigits = ""
		pool.AwayDigits = ""
		pool.LockedAt = nil
		if err := tx.Save(pool).Error; err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
		if err := tx.Where("pool_id = ?", poolID).
			Delete(&models.Winner{}).Error; err != nil {
			return fmt.Errorf("delete winners: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.auditRecord(&poolID, actor, "pool.unlock", nil)
	return nil
}

// shuffledDigits returns a permutation of 0-9 produced by a Fisher-Yates
// shuffle driven by crypto/rand. No process-wide state is retained
// between calls.
func shuffledDigits() ([]int, error) {
	digits := make([]int, 10)
	for i := range digits {
		digits[i] = i
	}
	if err := cryptoShuffle(len(digits), func(i, j int) {
		digits[i], digits[j] = digits[j], digits[i]
	}); err != nil {
		return nil, err
	}
	return digits, nil
}

// cryptoShuffle runs a Fisher-Yates shuffle over n elements using a
// cryptographically secure source.
func cryptoShuffle(n int, swap func(i, j int)) error {
	for i := n - 1; i > 0; i-- {
		r, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("read random: %w", err)
		}
		swap(i, int(r.Int64()))
	}
	return nil
}

func digitsString(digits []int) string {
	b := make([]byte, len(digits))
	for i, d := range digits {
		b[i] = byte('0' + d)
	}
	return string(b)
}

// ParseDigits is the inverse of digitsString; it expands a stored digit
// string back into the permutation slice.
func ParseDigits(s string) []int {
	digits := make([]int, len(s))
	for i := range s {
		digits[i] = int(s[i] - '0')
	}
	return digits
}
