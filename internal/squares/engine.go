// Package squares implements the core pool engine: the 100-square grid
// and its claim state machine, pool locking with random digit assignment,
// the append-only money ledger, and payment allocation across pools.
//
// Every public operation runs under an exclusive per-pool mutex and a
// single database transaction, so two concurrent attempts on the same
// square serialize: the second observes the committed state and fails
// cleanly instead of double-assigning. Business-rule violations come back
// as *Error values; only storage failures propagate as plain errors.
package squares

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Auditor receives a record of every state-changing operation. Calls are
// made after commit and are fire-and-forget; they are not part of the
// transactional guarantee.
type Auditor interface {
	Record(poolID *uint, actorType string, actorID uint, action string, detail map[string]any)
}

// Engine is the single entry point for all pool, claim, ledger and
// payment operations.
type Engine struct {
	db    *gorm.DB
	audit Auditor

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewEngine creates an engine over db. audit may be nil.
func NewEngine(db *gorm.DB, audit Auditor) *Engine {
	return &Engine{
		db:    db,
		audit: audit,
		locks: make(map[uint]*sync.Mutex),
	}
}

// poolLock returns the mutex guarding a pool, creating it on first use.
// Pool mutexes are never removed; a pool id maps to the same mutex for
// the life of the process.
func (e *Engine) poolLock(poolID uint) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[poolID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[poolID] = l
	}
	return l
}

// withPool runs fn inside the pool's mutex and one transaction. The mutex
// is the row-lock equivalent: it serializes every operation that touches
// the pool for the duration of the logical operation, and the transaction
// guarantees all-or-nothing effects.
func (e *Engine) withPool(ctx context.Context, poolID uint, fn func(tx *gorm.DB) error) error {
	l := e.poolLock(poolID)
	l.Lock()
	defer l.Unlock()
	return e.db.WithContext(ctx).Transaction(fn)
}

func (e *Engine) auditRecord(poolID *uint, actor Actor, action string, detail map[string]any) {
	if e.audit == nil {
		return
	}
	e.audit.Record(poolID, actor.actorType(), actor.PlayerID, action, detail)
}
