package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
)

func seedAlert(t *testing.T, db *gorm.DB) (*models.TrafficSample, *models.Alert) {
	t.Helper()
	isAttack := true
	conf := 0.91
	sample := &models.TrafficSample{
		SourceIP: "203.0.113.10", DestIP: "192.168.1.5",
		Protocol: "TCP", IsAttack: &isAttack, Confidence: &conf,
		AttackType: "DDoS", TrafficState: models.TrafficStateAttack,
	}
	require.NoError(t, db.Create(sample).Error)

	alert := &models.Alert{
		TrafficSampleID: sample.ID,
		AlertType:       models.AlertTierCritical,
		Severity:        5,
		Title:           "DDoS traffic from 203.0.113.10",
		AttackCategory:  "DDoS",
	}
	require.NoError(t, db.Create(alert).Error)
	return sample, alert
}

func TestAlertService_AssignMovesToInvestigating(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAlertService(db, NewAuditService(db))
	_, alert := seedAlert(t, db)

	user := models.User{Email: "analyst@localhost", Role: models.RoleAnalyst, Enabled: true}
	require.NoError(t, db.Create(&user).Error)

	updated, err := svc.Assign(alert.ID, user.ID, "analyst@localhost")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusInvestigating, updated.Status)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, user.ID, *updated.AssignedTo)

	// assigning to a user that does not exist is a validation failure
	_, err = svc.Assign(alert.ID, 9999, "analyst@localhost")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestAlertService_ResolveRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAlertService(db, NewAuditService(db))
	sample, alert := seedAlert(t, db)

	resolved, err := svc.Resolve(alert.ID, models.AlertStatusResolved, "mitigated at the edge", "analyst@localhost")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "mitigated at the edge", resolved.ResolutionNotes)

	// resolving again is a conflict
	_, err = svc.Resolve(alert.ID, models.AlertStatusFalsePositive, "", "analyst@localhost")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))

	// the linked sample is untouched by resolution
	var stored models.TrafficSample
	require.NoError(t, db.First(&stored, "id = ?", sample.ID).Error)
	assert.Equal(t, models.TrafficStateAttack, stored.TrafficState)
}

func TestAlertService_ResolveRejectsNonResolutionStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAlertService(db, NewAuditService(db))
	_, alert := seedAlert(t, db)

	_, err := svc.Resolve(alert.ID, models.AlertStatusOpen, "", "analyst@localhost")
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestAlertService_ListFiltersByStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAlertService(db, NewAuditService(db))
	_, alert := seedAlert(t, db)
	seedAlert(t, db)

	_, err := svc.Resolve(alert.ID, models.AlertStatusResolved, "", "analyst@localhost")
	require.NoError(t, err)

	open, err := svc.List(models.AlertStatusOpen, 0, 0)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	all, err := svc.List("", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAlertService_GetUnknownID(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAlertService(db, NewAuditService(db))

	_, err := svc.Get("no-such-alert")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}
