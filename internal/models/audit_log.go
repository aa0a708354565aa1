package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records privileged actions. Write-once: rows are appended and
// never mutated.
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action" gorm:"index"`
	Details   string    `json:"details" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}
