package services

import (
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/logger"
	"github.com/netsentinel/console/backend/internal/models"
)

// Audit actions recorded for traceability.
const (
	AuditActionLogin        = "login"
	AuditActionRegister     = "register"
	AuditActionAlertAssign  = "alert_assign"
	AuditActionAlertResolve = "alert_resolve"
	AuditActionBlockIP      = "block_ip"
	AuditActionUnblockIP    = "unblock_ip"
)

type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// Record appends one audit entry. Audit failures are logged, never
// propagated: the audited action must not fail because its trail did.
func (s *AuditService) Record(actor, action, details string) {
	entry := models.AuditLog{Actor: actor, Action: action, Details: details}
	if err := s.DB.Create(&entry).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"actor":  actor,
			"action": action,
		}).WithError(err).Error("failed to write audit entry")
	}
}

// List returns recent audit entries, newest first.
func (s *AuditService) List(limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLog
	err := s.DB.Order("created_at desc").Limit(limit).Find(&entries).Error
	return entries, err
}
