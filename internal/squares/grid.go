package squares

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// GridSize is the side length of every pool grid.
const GridSize = 10

// PoolParams configures a new pool.
type PoolParams struct {
	Name              string
	DenominationCent  int64
	MaxPerPlayer      int
	ApprovalThreshold int
	GameDate          *time.Time
}

// CreatePool creates a pool together with its 100 available squares.
func (e *Engine) CreatePool(ctx context.Context, p PoolParams, actor Actor) (*models.Pool, error) {
	if p.DenominationCent <= 0 {
		return nil, failf(KindInvalidAmount, "denomination must be positive")
	}
	if p.MaxPerPlayer <= 0 || p.MaxPerPlayer > GridSize*GridSize {
		return nil, failf(KindInvalidAmount, "max per player must be between 1 and 100")
	}

	pool := models.Pool{
		Name:              p.Name,
		DenominationCent:  p.DenominationCent,
		MaxPerPlayer:      p.MaxPerPlayer,
		ApprovalThreshold: p.ApprovalThreshold,
		Status:            models.PoolStatusOpen,
		GameDate:          p.GameDate,
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pool).Error; err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		squares := make([]models.Square, 0, GridSize*GridSize)
		for row := 0; row < GridSize; row++ {
			for col := 0; col < GridSize; col++ {
				squares = append(squares, models.Square{
					PoolID: pool.ID,
					Row:    row,
					Col:    col,
					Status: models.SquareAvailable,
				})
			}
		}
		if err := tx.Create(&squares).Error; err != nil {
			return fmt.Errorf("create squares: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.auditRecord(&pool.ID, actor, "pool.create", map[string]any{
		"name": pool.Name, "denomination_cent": pool.DenominationCent,
	})
	return &pool, nil
}

// AddMember creates a membership for the player in the pool. Adding a
// player who is already a member is a no-op.
func (e *Engine) AddMember(ctx context.Context, poolID, playerID uint, actor Actor) error {
	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		if _, err := loadPool(tx, poolID); err != nil {
			return err
		}
		if _, err := loadPlayer(tx, playerID); err != nil {
			return err
		}
		_, err := ensureMembership(tx, poolID, playerID)
		return err
	})
	if err != nil {
		return err
	}
	e.auditRecord(&poolID, actor, "pool.add_member", map[string]any{"player_id": playerID})
	return nil
}

// A GridCell is one square in the matrix view.
type GridCell struct {
	Row           int    `json:"row"`
	Col           int    `json:"col"`
	Status        string `json:"status"`
	PlayerID      *uint  `json:"player_id,omitempty"`
	PlayerName    string `json:"player_name,omitempty"`
	AdminOverride bool   `json:"admin_override,omitempty"`
}

// A PendingRequest is one square awaiting admin approval.
type PendingRequest struct {
	Row         int       `json:"row"`
	Col         int       `json:"col"`
	PlayerID    uint      `json:"player_id"`
	PlayerName  string    `json:"player_name,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// GridView is the full state of one pool grid.
type GridView struct {
	Pool    models.Pool                  `json:"pool"`
	Cells   [GridSize][GridSize]GridCell `json:"cells"`
	Pending []PendingRequest             `json:"pending"`
}

// Grid returns the 10x10 matrix plus pending requests ordered oldest
// first, for fair queueing.
func (e *Engine) Grid(ctx context.Context, poolID uint) (*GridView, error) {
	db := e.db.WithContext(ctx)

	pool, err := loadPool(db, poolID)
	if err != nil {
		return nil, err
	}

	var squares []models.Square
	if err := db.Preload("Player").
		Where("pool_id = ?", poolID).
		Find(&squares).Error; err != nil {
		return nil, fmt.Errorf("load squares: %w", err)
	}

	view := &GridView{Pool: *pool, Pending: []PendingRequest{}}
	for i := range squares {
		sq := &squares[i]
		cell := GridCell{
			Row:           sq.Row,
			Col:           sq.Col,
			Status:        sq.Status,
			PlayerID:      sq.PlayerID,
			AdminOverride: sq.AdminOverride,
		}
		if sq.Player != nil {
			cell.PlayerName = sq.Player.DisplayName
			if cell.PlayerName == "" {
				cell.PlayerName = sq.Player.Username
			}
		}
		view.Cells[sq.Row][sq.Col] = cell

		if sq.Status == models.SquarePending && sq.PlayerID != nil && sq.RequestedAt != nil {
			view.Pending = append(view.Pending, PendingRequest{
				Row:         sq.Row,
				Col:         sq.Col,
				PlayerID:    *sq.PlayerID,
				PlayerName:  cell.PlayerName,
				RequestedAt: *sq.RequestedAt,
			})
		}
	}
	sort.Slice(view.Pending, func(i, j int) bool {
		return view.Pending[i].RequestedAt.Before(view.Pending[j].RequestedAt)
	})
	return view, nil
}

// SetPoolStatus moves a pool between the administrative lifecycle states.
// Transitions into open or locked must go through Unlock and Lock, which
// manage the digit mapping.
func (e *Engine) SetPoolStatus(ctx context.Context, poolID uint, status string, actor Actor) error {
	switch status {
	case models.PoolStatusInProgress, models.PoolStatusFinal,
		models.PoolStatusCancelled, models.PoolStatusSuspended:
	default:
		return failf(KindInvalidStatus, "status %q cannot be set directly", status)
	}

	err := e.withPool(ctx, poolID, func(tx *gorm.DB) error {
		pool, err := loadPool(tx, poolID)
		if err != nil {
			return err
		}
		pool.Status = status
		if err := tx.Save(pool).Error; err != nil {
			return fmt.Errorf("save pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.auditRecord(&poolID, actor, "pool.set_status", map[string]any{"status": status})
	return nil
}

// ListPools returns pools, optionally filtered by status.
func (e *Engine) ListPools(ctx context.Context, status string) ([]models.Pool, error) {
	q := e.db.WithContext(ctx).Order("game_date ASC, id ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var pools []models.Pool
	if err := q.Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	return pools, nil
}

// ---------- shared loaders ----------

func loadPool(tx *gorm.DB, poolID uint) (*models.Pool, error) {
	var pool models.Pool
	if err := tx.First(&pool, poolID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, failf(KindPoolNotFound, "pool %d not found", poolID)
		}
		return nil, fmt.Errorf("load pool: %w", err)
	}
	return &pool, nil
}

func loadPlayer(tx *gorm.DB, playerID uint) (*models.Player, error) {
	var player models.Player
	if err := tx.First(&player, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, failf(KindPlayerNotFound, "player %d not found", playerID)
		}
		return nil, fmt.Errorf("load player: %w", err)
	}
	return &player, nil
}

func loadSquare(tx *gorm.DB, poolID uint, row, col int) (*models.Square, error) {
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return nil, failf(KindSquareNotFound, "square (%d,%d) out of range", row, col)
	}
	var sq models.Square
	err := tx.Where("pool_id = ? AND row = ? AND col = ?", poolID, row, col).
		First(&sq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, failf(KindSquareNotFound, "square (%d,%d) not found", row, col)
		}
		return nil, fmt.Errorf("load square: %w", err)
	}
	return &sq, nil
}

func loadMembership(tx *gorm.DB, poolID, playerID uint) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("pool_id = ? AND player_id = ?", poolID, playerID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, failf(KindNotMember, "player %d is not a member of pool %d", playerID, poolID)
		}
		return nil, fmt.Errorf("load membership: %w", err)
	}
	return &m, nil
}

// ensureMembership returns the membership, creating it when absent.
func ensureMembership(tx *gorm.DB, poolID, playerID uint) (*models.Membership, error) {
	m, err := loadMembership(tx, poolID, playerID)
	if err == nil {
		return m, nil
	}
	if KindOf(err) != KindNotMember {
		return nil, err
	}
	created := models.Membership{
		PoolID:        poolID,
		PlayerID:      playerID,
		PaymentStatus: models.PaymentPending,
	}
	if err := tx.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return &created, nil
}
