package squares

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// RecordWinner maps a period score onto the grid through the locked digit
// permutations and stores the winning square. The winning row is the one
// whose home digit equals the last digit of the home score, likewise for
// the column and the away score. Recording the same period again replaces
// the stored row.
func (e *Engine) RecordWinner(ctx context.Context, poolID uint, period string, homeScore, awayScore int, actor Actor) (*models.Winner, error) {
	if homeScore < 0 || awayScore < 0 {
		return nil, failf(KindInvalidAmount, "scores cannot be negative")
	}

	var winner models.Winner
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		if !pool.Locked() {
			return failf(KindNotLocked, "pool digits are not locked")
		}

		row := strings.IndexByte(pool.HomeDigits, byte('0'+homeScore%10))
		col := strings.IndexByte(pool.AwayDigits, byte('0'+awayScore%10))

		sq, err := loadSquare(tx, poolID, row, col)
		if err != nil {
			return err
		}

		// replace any previous result for the period
		if err := tx.Where("pool_id = ? AND period = ?", poolID, period).
			Delete(&models.Winner{}).Error; err != nil {
			return fmt.Errorf("delete winner: %w", err)
		}
		winner = models.Winner{
			PoolID:    poolID,
			Period:    period,
			Row:       row,
			Col:       col,
			PlayerID:  sq.PlayerID,
			HomeScore: homeScore,
			AwayScore: awayScore,
		}
		if err := tx.Create(&winner).Error; err != nil {
			return fmt.Errorf("create winner: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.auditRecord(&poolID, actor, "pool.record_winner", map[string]any{
		"period": period, "home": homeScore, "away": awayScore,
		"row": winner.Row, "col": winner.Col,
	})
	return &winner, nil
}

// Winners lists the stored results for a pool in period order.
func (e *Engine) Winners(ctx context.Context, poolID uint) ([]models.Winner, error) {
	if _, err := loadPool(e.db.WithContext(ctx), poolID); err != nil {
		return nil, err
	}
	var winners []models.Winner
	err := e.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("period ASC").
		Find(&winners).Error
	if err != nil {
		return nil, fmt.Errorf("load winners: %w", err)
	}
	return winners, nil
}
