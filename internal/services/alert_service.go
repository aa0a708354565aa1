package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
)

type AlertService struct {
	DB    *gorm.DB
	Audit *AuditService
}

func NewAlertService(db *gorm.DB, audit *AuditService) *AlertService {
	return &AlertService{DB: db, Audit: audit}
}

// List returns alerts newest first, optionally filtered by status.
func (s *AlertService) List(status models.AlertStatus, limit, offset int) ([]models.Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := s.DB.Order("created_at desc").Limit(limit).Offset(offset)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var alerts []models.Alert
	err := query.Find(&alerts).Error
	return alerts, err
}

// Get returns one alert by id.
func (s *AlertService) Get(id string) (*models.Alert, error) {
	var alert models.Alert
	if err := s.DB.First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Ef(KindNotFound, "alerts.get", "alert %s not found", id)
		}
		return nil, err
	}
	return &alert, nil
}

// Assign puts an alert under investigation by a user.
func (s *AlertService) Assign(id string, userID uint, actor string) (*models.Alert, error) {
	alert, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Ef(KindValidation, "alerts.assign", "user %d not found", userID)
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"assigned_to": userID,
		"status":      models.AlertStatusInvestigating,
	}
	if err := s.DB.Model(alert).Updates(updates).Error; err != nil {
		return nil, err
	}
	alert.AssignedTo = &userID
	alert.Status = models.AlertStatusInvestigating

	s.Audit.Record(actor, AuditActionAlertAssign, fmt.Sprintf("alert %s assigned to user %d", id, userID))
	return alert, nil
}

// Resolve closes an alert as resolved or false_positive. The linked traffic
// sample is untouched.
func (s *AlertService) Resolve(id string, status models.AlertStatus, notes, actor string) (*models.Alert, error) {
	if status != models.AlertStatusResolved && status != models.AlertStatusFalsePositive {
		return nil, Ef(KindValidation, "alerts.resolve", "status %q is not a resolution", status)
	}

	alert, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if alert.Status == models.AlertStatusResolved || alert.Status == models.AlertStatusFalsePositive {
		return nil, Ef(KindConflict, "alerts.resolve", "alert %s already resolved", id)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":           status,
		"resolved_at":      now,
		"resolution_notes": notes,
	}
	if err := s.DB.Model(alert).Updates(updates).Error; err != nil {
		return nil, err
	}
	alert.Status = status
	alert.ResolvedAt = &now
	alert.ResolutionNotes = notes

	s.Audit.Record(actor, AuditActionAlertResolve, fmt.Sprintf("alert %s resolved as %s", id, status))
	return alert, nil
}
