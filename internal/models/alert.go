package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertTier is the severity bucket label derived from numeric severity.
type AlertTier string

const (
	AlertTierHigh     AlertTier = "HIGH"
	AlertTierCritical AlertTier = "CRITICAL"
)

// AlertStatus is the analyst-driven lifecycle of an alert.
type AlertStatus string

const (
	AlertStatusOpen          AlertStatus = "open"
	AlertStatusInvestigating AlertStatus = "investigating"
	AlertStatusResolved      AlertStatus = "resolved"
	AlertStatusFalsePositive AlertStatus = "false_positive"
)

// Alert is created by the ingestion pipeline when policy fires; at most one
// alert per ingested sample. Mutated by analyst actions, never deleted
// automatically.
type Alert struct {
	ID              string `json:"id" gorm:"primaryKey"`
	TrafficSampleID string `json:"traffic_sample_id" gorm:"index"`

	AlertType      AlertTier   `json:"alert_type"`
	Severity       int         `json:"severity"` // 1..5
	Title          string      `json:"title"`
	Description    string      `json:"description" gorm:"type:text"`
	AttackCategory string      `json:"attack_category" gorm:"index"`
	Status         AlertStatus `json:"status" gorm:"index;default:'open'"`
	AutoBlocked    bool        `json:"auto_blocked"`

	AssignedTo      *uint      `json:"assigned_to,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Alert) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = AlertStatusOpen
	}
	return
}
