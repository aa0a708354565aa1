package services

import (
	"context"
	"fmt"
	"net"
	"time"

	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/classifier"
	"github.com/netsentinel/console/backend/internal/geoip"
	"github.com/netsentinel/console/backend/internal/live"
	"github.com/netsentinel/console/backend/internal/logger"
	"github.com/netsentinel/console/backend/internal/metrics"
	"github.com/netsentinel/console/backend/internal/models"
	"github.com/netsentinel/console/backend/internal/policy"
)

// Predictor is the classifier gateway as the pipeline sees it.
type Predictor interface {
	Predict(ctx context.Context, features map[string]float64) (*classifier.Prediction, error)
}

// IngestRequest is one traffic sample to run through the pipeline, carrying
// either a pre-computed classification or raw flow features to classify.
type IngestRequest struct {
	SrcIP      string `json:"srcIp" binding:"required"`
	DstIP      string `json:"dstIp" binding:"required"`
	SrcPort    int    `json:"srcPort"`
	DstPort    int    `json:"dstPort"`
	Protocol   string `json:"protocol" binding:"required"`
	PacketSize int    `json:"packetSize"`

	FlowDuration     float64 `json:"flowDuration"`
	TotalFwdPackets  int64   `json:"totalFwdPackets"`
	TotalBwdPackets  int64   `json:"totalBwdPackets"`
	TotalFwdBytes    int64   `json:"totalFwdBytes"`
	TotalBwdBytes    int64   `json:"totalBwdBytes"`
	FwdPacketLenMean float64 `json:"fwdPacketLengthMean"`
	BwdPacketLenMean float64 `json:"bwdPacketLengthMean"`
	FlowBytesPerSec  float64 `json:"flowBytesPerSec"`
	FlowPktsPerSec   float64 `json:"flowPacketsPerSec"`
	FwdIATMean       float64 `json:"fwdIatMean"`
	BwdIATMean       float64 `json:"bwdIatMean"`

	// Pre-supplied classification; IsAttack nil means "classify for me".
	IsAttack       *bool    `json:"isAttack"`
	PredictedClass string   `json:"predictedClass"`
	Confidence     *float64 `json:"confidence"`
	State          string   `json:"state"`
}

// IngestResult is what the pipeline hands back to the caller.
type IngestResult struct {
	Sample       *models.TrafficSample `json:"sample"`
	Alert        *models.Alert         `json:"alert,omitempty"`
	AlertCreated bool                  `json:"alert_created"`
	Classified   bool                  `json:"classified"` // classification was computed, not supplied
}

// IngestService runs the ingestion pipeline: validate, classify when needed,
// persist, apply policy, block when indicated, broadcast.
type IngestService struct {
	DB         *gorm.DB
	Classifier Predictor
	Policy     policy.Policy // direct-ingest policy
	Analysis   policy.Policy // gateway-classified policy, never auto-blocks
	Blocks     *BlockService
	Hub        *live.Hub
	Geo        *geoip.Resolver
	Notifier   *AlertNotifier
}

func NewIngestService(db *gorm.DB, pred Predictor, ingestPol, analysisPol policy.Policy,
	blocks *BlockService, hub *live.Hub, geo *geoip.Resolver, notifier *AlertNotifier) *IngestService {
	return &IngestService{
		DB:         db,
		Classifier: pred,
		Policy:     ingestPol,
		Analysis:   analysisPol,
		Blocks:     blocks,
		Hub:        hub,
		Geo:        geo,
		Notifier:   notifier,
	}
}

// Ingest runs the direct ingestion path. A pre-supplied classification is
// honored; otherwise the classifier gateway is consulted first.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	return s.run(ctx, req, s.Policy, false)
}

// Analyze runs the analysis path: the classifier gateway is always
// consulted, any supplied classification is ignored, and the stricter
// analysis policy applies.
func (s *IngestService) Analyze(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	req.IsAttack = nil
	req.PredictedClass = ""
	req.Confidence = nil
	return s.run(ctx, req, s.Analysis, true)
}

func (s *IngestService) run(ctx context.Context, req IngestRequest, pol policy.Policy, forceClassify bool) (*IngestResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sample := sampleFromRequest(req)

	// Step 1: classification. Gateway failure aborts before anything is
	// persisted.
	classified := false
	if forceClassify || req.IsAttack == nil {
		if s.Classifier == nil {
			return nil, Ef(KindGateway, "ingest.classify", "no classifier configured and no classification supplied")
		}
		pred, err := s.Classifier.Predict(ctx, sample.Features())
		if err != nil {
			metrics.IncGatewayFailure()
			return nil, E(KindGateway, "ingest.classify", err)
		}
		classified = true
		applyPrediction(sample, pred)
	} else {
		applySupplied(sample, req)
	}

	if req.State != "" {
		state, err := models.ParseTrafficState(req.State)
		if err != nil {
			return nil, E(KindValidation, "ingest.state", err)
		}
		sample.TrafficState = state
	}

	if s.Geo != nil {
		sample.SourceCountry = s.Geo.Country(sample.SourceIP)
	}

	// Step 2: the sample write is the commit point. Anything after it may
	// fail without rolling the sample back.
	if err := s.DB.Create(sample).Error; err != nil {
		return nil, E(KindPersistence, "ingest.persist_sample", err)
	}
	metrics.IncSampleIngested(string(sample.TrafficState))

	// Steps 3-4: policy, alert, auto-block.
	isAttack := sample.IsAttack != nil && *sample.IsAttack
	decision := pol.Evaluate(isAttack, sample.Confidence)

	result := &IngestResult{Sample: sample, Classified: classified}

	if decision.CreateAlert {
		alert, err := s.applyDecision(sample, decision)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"sample_id": sample.ID,
				"policy":    pol.Name(),
			}).WithError(err).Error("alert/block step failed after sample persisted")
			return nil, E(KindPersistence, "ingest.apply_decision", err)
		}
		result.Alert = alert
		result.AlertCreated = true
	}

	// Step 5: fire-and-forget fan-out; never blocks or fails the caller.
	s.Hub.Publish(live.TopicTraffic, live.NewEvent(live.EventNewTraffic, sample))
	if result.Alert != nil {
		s.Hub.Publish(live.TopicAlerts, live.NewEvent(live.EventNewAlert, result.Alert))
	}

	return result, nil
}

// applyDecision persists the alert and, when indicated, the auto-block for
// the sample's source IP.
func (s *IngestService) applyDecision(sample *models.TrafficSample, decision policy.Decision) (*models.Alert, error) {
	category := sample.AttackType
	if category == "" {
		category = "Unknown"
	}

	alert := &models.Alert{
		TrafficSampleID: sample.ID,
		AlertType:       decision.Tier,
		Severity:        decision.Severity,
		Title:           fmt.Sprintf("%s traffic from %s", category, sample.SourceIP),
		Description: fmt.Sprintf("%s flow %s:%d -> %s:%d classified as %s (confidence %.2f)",
			sample.Protocol, sample.SourceIP, sample.SourcePort, sample.DestIP, sample.DestPort,
			category, confidenceOf(sample)),
		AttackCategory: category,
	}

	if decision.AutoBlock {
		reason := fmt.Sprintf("auto-block: %s (confidence %.2f)", category, confidenceOf(sample))
		_, _, err := s.Blocks.Block(sample.SourceIP, reason, SystemActor, models.BlockTypeTemporary)
		if err != nil {
			return nil, fmt.Errorf("auto-block %s: %w", sample.SourceIP, err)
		}
		alert.AutoBlocked = true

		if err := s.DB.Model(sample).Update("traffic_state", models.TrafficStateBlocked).Error; err != nil {
			return nil, fmt.Errorf("mark sample blocked: %w", err)
		}
		sample.TrafficState = models.TrafficStateBlocked
	}

	if err := s.DB.Create(alert).Error; err != nil {
		return nil, fmt.Errorf("persist alert: %w", err)
	}
	metrics.IncAlertCreated(string(alert.AlertType))

	if s.Notifier != nil && alert.AlertType == models.AlertTierCritical {
		s.Notifier.NotifyCritical(alert, sample)
	}

	return alert, nil
}

func validateRequest(req IngestRequest) error {
	const op = "ingest.validate"
	if net.ParseIP(req.SrcIP) == nil {
		return Ef(KindValidation, op, "invalid source IP %q", req.SrcIP)
	}
	if net.ParseIP(req.DstIP) == nil {
		return Ef(KindValidation, op, "invalid destination IP %q", req.DstIP)
	}
	if req.SrcPort < 0 || req.SrcPort > 65535 {
		return Ef(KindValidation, op, "source port %d out of range", req.SrcPort)
	}
	if req.DstPort < 0 || req.DstPort > 65535 {
		return Ef(KindValidation, op, "destination port %d out of range", req.DstPort)
	}
	if req.Protocol == "" {
		return Ef(KindValidation, op, "protocol is required")
	}
	if req.PacketSize < 0 {
		return Ef(KindValidation, op, "packet size must not be negative")
	}
	if req.Confidence != nil && (*req.Confidence < 0 || *req.Confidence > 1) {
		return Ef(KindValidation, op, "confidence %v outside [0,1]", *req.Confidence)
	}
	return nil
}

func sampleFromRequest(req IngestRequest) *models.TrafficSample {
	return &models.TrafficSample{
		Timestamp:        time.Now().UTC(),
		SourceIP:         req.SrcIP,
		DestIP:           req.DstIP,
		SourcePort:       req.SrcPort,
		DestPort:         req.DstPort,
		Protocol:         req.Protocol,
		PacketSize:       req.PacketSize,
		FlowDuration:     req.FlowDuration,
		TotalFwdPackets:  req.TotalFwdPackets,
		TotalBwdPackets:  req.TotalBwdPackets,
		TotalFwdBytes:    req.TotalFwdBytes,
		TotalBwdBytes:    req.TotalBwdBytes,
		FwdPacketLenMean: req.FwdPacketLenMean,
		BwdPacketLenMean: req.BwdPacketLenMean,
		FlowBytesPerSec:  req.FlowBytesPerSec,
		FlowPktsPerSec:   req.FlowPktsPerSec,
		FwdIATMean:       req.FwdIATMean,
		BwdIATMean:       req.BwdIATMean,
	}
}

func applyPrediction(sample *models.TrafficSample, pred *classifier.Prediction) {
	isAttack := pred.IsAttack && !pred.Benign()
	sample.IsAttack = &isAttack
	conf := pred.Confidence
	sample.Confidence = &conf
	sample.AnomalyScore = pred.AnomalyScore
	if isAttack {
		sample.AttackType = pred.AttackType
		sample.TrafficState = models.TrafficStateAttack
	} else {
		sample.TrafficState = models.TrafficStateNormal
	}
}

func applySupplied(sample *models.TrafficSample, req IngestRequest) {
	isAttack := req.IsAttack != nil && *req.IsAttack
	sample.IsAttack = &isAttack
	sample.Confidence = req.Confidence
	benign := (classifier.Prediction{AttackType: req.PredictedClass}).Benign()
	if isAttack {
		sample.TrafficState = models.TrafficStateAttack
		if !benign {
			sample.AttackType = req.PredictedClass
		}
	} else {
		sample.TrafficState = models.TrafficStateNormal
	}
}

func confidenceOf(sample *models.TrafficSample) float64 {
	if sample.Confidence == nil {
		return 0
	}
	return *sample.Confidence
}
