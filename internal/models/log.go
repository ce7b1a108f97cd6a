package models

import "time"

// AuditLog records every state-changing operation for auditing. Writes are
// fire-and-forget and sit outside the transactional guarantee.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	PoolID    *uint  `gorm:"index"`
	ActorID   uint   `gorm:"index"`
	ActorType string `gorm:"size:16"` // player / admin
	Action    string `gorm:"size:64;index"`
	Detail    string `gorm:"size:2048"` // JSON detail object
	CreatedAt time.Time
}
