// Package audit persists a trail of state-changing operations.
package audit

import (
	"encoding/json"

	"github.com/mattzapanta/squares/internal/models"

	"gorm.io/gorm"
)

// Logger writes AuditLog rows. Failures are swallowed: auditing is a side
// channel and must never fail the operation it records.
type Logger struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{DB: db}
}

// Record implements squares.Auditor.
func (l *Logger) Record(poolID *uint, actorType string, actorID uint, action string, detail map[string]any) {
	var detailJSON string
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			detailJSON = string(b)
		}
	}
	entry := models.AuditLog{
		PoolID:    poolID,
		ActorID:   actorID,
		ActorType: actorType,
		Action:    action,
		Detail:    detailJSON,
	}
	_ = l.DB.Create(&entry).Error
}
