package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
)

func seedSample(t *testing.T, db *gorm.DB, srcIP, attackType string, state models.TrafficState, age time.Duration) {
	t.Helper()
	sample := models.TrafficSample{
		Timestamp:    time.Now().UTC().Add(-age),
		SourceIP:     srcIP,
		DestIP:       "192.168.1.5",
		Protocol:     "TCP",
		AttackType:   attackType,
		TrafficState: state,
	}
	require.NoError(t, db.Create(&sample).Error)
}

func TestDashboard_SnapshotCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(db)

	seedSample(t, db, "10.0.0.1", "", models.TrafficStateNormal, time.Minute)
	seedSample(t, db, "10.0.0.1", "", models.TrafficStateNormal, 2*time.Hour)
	seedSample(t, db, "203.0.113.9", "DDoS", models.TrafficStateAttack, time.Minute)
	seedSample(t, db, "203.0.113.9", "DDoS", models.TrafficStateBlocked, 3*time.Hour)
	seedSample(t, db, "198.51.100.3", "PortScan", models.TrafficStateAttack, time.Hour)
	// outside the window, must not count
	seedSample(t, db, "203.0.113.9", "DDoS", models.TrafficStateAttack, 30*time.Hour)

	snap, err := svc.Snapshot(24 * time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(5), snap.TotalTraffic)
	assert.Equal(t, int64(3), snap.AttackCount)
	assert.InDelta(t, 0.6, snap.AttackRate, 1e-9)

	require.NotEmpty(t, snap.ByAttackType)
	assert.Equal(t, "DDoS", snap.ByAttackType[0].AttackType)
	assert.Equal(t, int64(2), snap.ByAttackType[0].Count)

	require.NotEmpty(t, snap.TopSources)
	assert.Equal(t, "203.0.113.9", snap.TopSources[0].IP)
	assert.Equal(t, int64(2), snap.TopSources[0].Count)
}

func TestDashboard_AlertAndBlockCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(db)

	require.NoError(t, db.Create(&models.Alert{
		TrafficSampleID: "s1", AlertType: models.AlertTierCritical, Severity: 5,
	}).Error)
	require.NoError(t, db.Create(&models.Alert{
		TrafficSampleID: "s2", AlertType: models.AlertTierHigh, Severity: 4,
		Status: models.AlertStatusInvestigating,
	}).Error)
	resolved := time.Now().UTC()
	require.NoError(t, db.Create(&models.Alert{
		TrafficSampleID: "s3", AlertType: models.AlertTierCritical, Severity: 5,
		Status: models.AlertStatusResolved, ResolvedAt: &resolved,
	}).Error)

	require.NoError(t, db.Create(&models.BlockedIP{IPAddress: "203.0.113.9", BlockedBy: SystemActor}).Error)
	lifted := time.Now().UTC()
	require.NoError(t, db.Create(&models.BlockedIP{IPAddress: "203.0.113.10", BlockedBy: SystemActor, UnblockedAt: &lifted}).Error)

	snap, err := svc.Snapshot(0)
	require.NoError(t, err)

	assert.Equal(t, int64(2), snap.OpenAlerts)
	assert.Equal(t, int64(1), snap.CriticalAlerts)
	assert.Equal(t, int64(1), snap.ActiveBlocks)
}

func TestDashboard_TimelineBucketsByState(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(db)

	seedSample(t, db, "10.0.0.1", "", models.TrafficStateNormal, 2*time.Minute)
	seedSample(t, db, "203.0.113.9", "DDoS", models.TrafficStateAttack, 2*time.Minute)
	seedSample(t, db, "203.0.113.9", "DDoS", models.TrafficStateBlocked, 2*time.Minute)

	snap, err := svc.Snapshot(time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, snap.Timeline)

	// 5-minute buckets covering a one hour window
	assert.GreaterOrEqual(t, len(snap.Timeline), 12)
	assert.Equal(t, 5*time.Minute, snap.Timeline[1].Start.Sub(snap.Timeline[0].Start))

	var normal, attack int64
	for _, bucket := range snap.Timeline {
		normal += bucket.Normal
		attack += bucket.Attack
	}
	assert.Equal(t, int64(1), normal)
	assert.Equal(t, int64(2), attack)
}

func TestDashboard_EmptyWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewDashboardService(db)

	snap, err := svc.Snapshot(time.Hour)
	require.NoError(t, err)
	assert.Zero(t, snap.TotalTraffic)
	assert.Zero(t, snap.AttackRate)
	assert.Empty(t, snap.ByAttackType)
	assert.Empty(t, snap.TopSources)
}
