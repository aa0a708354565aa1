package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/models"
)

// TimelineBucket is one fixed-width slice of the normal-vs-attack series.
type TimelineBucket struct {
	Start  time.Time `json:"start"`
	Normal int64     `json:"normal"`
	Attack int64     `json:"attack"`
}

// SourceCount ranks a source IP by attack volume.
type SourceCount struct {
	IP    string `json:"ip"`
	Count int64  `json:"count"`
}

// TypeCount counts attacks per predicted type.
type TypeCount struct {
	AttackType string `json:"attack_type"`
	Count      int64  `json:"count"`
}

// Snapshot is the point-in-time dashboard aggregate. Recomputed on every
// call; there is no cache.
type Snapshot struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	TotalTraffic int64   `json:"total_traffic"`
	AttackCount  int64   `json:"attack_count"`
	AttackRate   float64 `json:"attack_rate"`

	ByAttackType []TypeCount   `json:"by_attack_type"`
	TopSources   []SourceCount `json:"top_sources"`

	OpenAlerts     int64 `json:"open_alerts"`
	CriticalAlerts int64 `json:"critical_alerts"`
	ActiveBlocks   int64 `json:"active_blocks"`

	Timeline []TimelineBucket `json:"timeline"`
}

type DashboardService struct {
	DB *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{DB: db}
}

const (
	defaultLookback = 24 * time.Hour
	bucketWidth     = 5 * time.Minute
	topSourceLimit  = 10
)

// attackStates are the sample states counted as attacks; blocked samples
// were attacks whose source got auto-blocked.
var attackStates = []models.TrafficState{models.TrafficStateAttack, models.TrafficStateBlocked}

// Snapshot computes the dashboard aggregate over the lookback window.
func (s *DashboardService) Snapshot(lookback time.Duration) (*Snapshot, error) {
	if lookback <= 0 {
		lookback = defaultLookback
	}
	now := time.Now().UTC()
	since := now.Add(-lookback)

	snap := &Snapshot{WindowStart: since, WindowEnd: now}

	samples := s.DB.Model(&models.TrafficSample{}).Where("timestamp >= ?", since)
	if err := samples.Session(&gorm.Session{}).Count(&snap.TotalTraffic).Error; err != nil {
		return nil, err
	}
	if err := samples.Session(&gorm.Session{}).
		Where("traffic_state IN ?", attackStates).
		Count(&snap.AttackCount).Error; err != nil {
		return nil, err
	}
	if snap.TotalTraffic > 0 {
		snap.AttackRate = float64(snap.AttackCount) / float64(snap.TotalTraffic)
	}

	if err := s.DB.Model(&models.TrafficSample{}).
		Select("attack_type, count(*) as count").
		Where("timestamp >= ? AND traffic_state IN ? AND attack_type <> ''", since, attackStates).
		Group("attack_type").
		Order("count desc").
		Scan(&snap.ByAttackType).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.TrafficSample{}).
		Select("source_ip as ip, count(*) as count").
		Where("timestamp >= ? AND traffic_state IN ?", since, attackStates).
		Group("source_ip").
		Order("count desc").
		Limit(topSourceLimit).
		Scan(&snap.TopSources).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.Alert{}).
		Where("status IN ?", []models.AlertStatus{models.AlertStatusOpen, models.AlertStatusInvestigating}).
		Count(&snap.OpenAlerts).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Alert{}).
		Where("alert_type = ? AND status IN ?", models.AlertTierCritical,
			[]models.AlertStatus{models.AlertStatusOpen, models.AlertStatusInvestigating}).
		Count(&snap.CriticalAlerts).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Model(&models.BlockedIP{}).
		Where("unblocked_at IS NULL").
		Count(&snap.ActiveBlocks).Error; err != nil {
		return nil, err
	}

	timeline, err := s.timeline(since, now)
	if err != nil {
		return nil, err
	}
	snap.Timeline = timeline

	return snap, nil
}

// timeline buckets samples in [since, now) into fixed 5-minute slices.
// Bucketing happens in Go to stay portable across store backends.
func (s *DashboardService) timeline(since, now time.Time) ([]TimelineBucket, error) {
	var rows []struct {
		Timestamp    time.Time
		TrafficState models.TrafficState
	}
	if err := s.DB.Model(&models.TrafficSample{}).
		Select("timestamp, traffic_state").
		Where("timestamp >= ?", since).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	start := since.Truncate(bucketWidth)
	n := int(now.Sub(start)/bucketWidth) + 1
	buckets := make([]TimelineBucket, n)
	for i := range buckets {
		buckets[i].Start = start.Add(time.Duration(i) * bucketWidth)
	}

	for _, row := range rows {
		idx := int(row.Timestamp.Sub(start) / bucketWidth)
		if idx < 0 || idx >= n {
			continue
		}
		switch row.TrafficState {
		case models.TrafficStateAttack, models.TrafficStateBlocked:
			buckets[idx].Attack++
		default:
			buckets[idx].Normal++
		}
	}

	return buckets, nil
}
