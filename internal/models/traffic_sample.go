package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrafficState is the closed lifecycle state of a traffic sample.
type TrafficState string

const (
	TrafficStateNormal     TrafficState = "normal"
	TrafficStateSuspicious TrafficState = "suspicious"
	TrafficStateAttack     TrafficState = "attack"
	TrafficStateBlocked    TrafficState = "blocked"
)

// ParseTrafficState maps an incoming state string onto the closed enum.
// Legacy capture states "ACTIVE" and "COMPLETED" are normalized to attack
// and normal respectively; anything unrecognized is rejected.
func ParseTrafficState(raw string) (TrafficState, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return TrafficStateAttack, nil
	case "completed":
		return TrafficStateNormal, nil
	case string(TrafficStateNormal):
		return TrafficStateNormal, nil
	case string(TrafficStateSuspicious):
		return TrafficStateSuspicious, nil
	case string(TrafficStateAttack):
		return TrafficStateAttack, nil
	case string(TrafficStateBlocked):
		return TrafficStateBlocked, nil
	default:
		return "", fmt.Errorf("unknown traffic state %q", raw)
	}
}

// TrafficSample is one observed or simulated network flow record with its
// classification outputs. Created on ingestion; immutable afterwards except
// for state transitions driven by IP blocking.
type TrafficSample struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`

	SourceIP   string `json:"src_ip" gorm:"index"`
	DestIP     string `json:"dst_ip"`
	SourcePort int    `json:"src_port"`
	DestPort   int    `json:"dst_port"`
	Protocol   string `json:"protocol"`
	PacketSize int    `json:"packet_size"`

	SourceCountry string `json:"src_country,omitempty"`

	// Flow statistics, treated as opaque numeric features.
	FlowDuration     float64 `json:"flow_duration"`
	TotalFwdPackets  int64   `json:"total_fwd_packets"`
	TotalBwdPackets  int64   `json:"total_bwd_packets"`
	TotalFwdBytes    int64   `json:"total_fwd_bytes"`
	TotalBwdBytes    int64   `json:"total_bwd_bytes"`
	FwdPacketLenMean float64 `json:"fwd_packet_length_mean"`
	BwdPacketLenMean float64 `json:"bwd_packet_length_mean"`
	FlowBytesPerSec  float64 `json:"flow_bytes_per_sec"`
	FlowPktsPerSec   float64 `json:"flow_packets_per_sec"`
	FwdIATMean       float64 `json:"fwd_iat_mean"`
	BwdIATMean       float64 `json:"bwd_iat_mean"`

	// Classification outputs; nil until classified.
	IsAttack     *bool        `json:"is_attack"`
	AttackType   string       `json:"attack_type,omitempty"`
	Confidence   *float64     `json:"confidence,omitempty"`
	AnomalyScore *float64     `json:"anomaly_score,omitempty"`
	TrafficState TrafficState `json:"traffic_state" gorm:"index;default:'normal'"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (s *TrafficSample) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	if s.TrafficState == "" {
		s.TrafficState = TrafficStateNormal
	}
	return
}

// Features returns the flow statistics as the flat map the prediction API
// expects.
func (s *TrafficSample) Features() map[string]float64 {
	return map[string]float64{
		"flow_duration":          s.FlowDuration,
		"total_fwd_packets":      float64(s.TotalFwdPackets),
		"total_bwd_packets":      float64(s.TotalBwdPackets),
		"total_fwd_bytes":        float64(s.TotalFwdBytes),
		"total_bwd_bytes":        float64(s.TotalBwdBytes),
		"fwd_packet_length_mean": s.FwdPacketLenMean,
		"bwd_packet_length_mean": s.BwdPacketLenMean,
		"flow_bytes_per_sec":     s.FlowBytesPerSec,
		"flow_packets_per_sec":   s.FlowPktsPerSec,
		"fwd_iat_mean":           s.FwdIATMean,
		"bwd_iat_mean":           s.BwdIATMean,
		"dst_port":               float64(s.DestPort),
	}
}
