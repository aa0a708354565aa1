package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/netsentinel/console/backend/internal/classifier"
	"github.com/netsentinel/console/backend/internal/config"
	"github.com/netsentinel/console/backend/internal/live"
	"github.com/netsentinel/console/backend/internal/models"
	"github.com/netsentinel/console/backend/internal/policy"
)

type fakePredictor struct {
	pred  classifier.Prediction
	err   error
	calls int32
}

func (f *fakePredictor) Predict(ctx context.Context, features map[string]float64) (*classifier.Prediction, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	p := f.pred
	return &p, nil
}

func newTestIngestService(db *gorm.DB, pred Predictor) (*IngestService, *live.Hub) {
	hub := live.NewHub()
	blocks := NewBlockService(db, 24*time.Hour, NewAuditService(db))
	svc := NewIngestService(db, pred,
		policy.NewIngestPolicy(config.PolicyThresholds{Low: 0.50, High: 0.70, Critical: 0.90, Block: 0.70}),
		policy.NewAnalysisPolicy(config.PolicyThresholds{Low: 0.85, High: 0.85, Critical: 0.95}),
		blocks, hub, nil, nil)
	return svc, hub
}

func flowRequest() IngestRequest {
	return IngestRequest{
		SrcIP:      "203.0.113.10",
		DstIP:      "192.168.1.5",
		SrcPort:    44123,
		DstPort:    443,
		Protocol:   "TCP",
		PacketSize: 512,
	}
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestIngest_LowConfidenceAttackAlertsWithoutBlocking(t *testing.T) {
	db := setupTestDB(t)
	pred := &fakePredictor{}
	svc, _ := newTestIngestService(db, pred)

	req := flowRequest()
	req.IsAttack = boolPtr(true)
	req.PredictedClass = "PortScan"
	req.Confidence = floatPtr(0.59)

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.AlertCreated)
	assert.False(t, res.Classified)
	assert.Equal(t, int32(0), atomic.LoadInt32(&pred.calls))

	assert.Equal(t, 3, res.Alert.Severity)
	assert.Equal(t, models.AlertTierHigh, res.Alert.AlertType)
	assert.False(t, res.Alert.AutoBlocked)
	assert.Equal(t, models.TrafficStateAttack, res.Sample.TrafficState)
	assert.Equal(t, "PortScan", res.Sample.AttackType)

	var blocks int64
	require.NoError(t, db.Model(&models.BlockedIP{}).Count(&blocks).Error)
	assert.Zero(t, blocks)
}

func TestIngest_CriticalConfidenceAutoBlocks(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestIngestService(db, &fakePredictor{})

	req := flowRequest()
	req.IsAttack = boolPtr(true)
	req.PredictedClass = "DDoS"
	req.Confidence = floatPtr(0.95)

	before := time.Now().UTC()
	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.AlertCreated)

	assert.Equal(t, 5, res.Alert.Severity)
	assert.Equal(t, models.AlertTierCritical, res.Alert.AlertType)
	assert.True(t, res.Alert.AutoBlocked)
	assert.Equal(t, models.TrafficStateBlocked, res.Sample.TrafficState)

	var block models.BlockedIP
	require.NoError(t, db.First(&block, "ip_address = ?", req.SrcIP).Error)
	assert.Nil(t, block.UnblockedAt)
	assert.Equal(t, SystemActor, block.BlockedBy)
	require.NotNil(t, block.ExpiresAt)
	assert.WithinDuration(t, before.Add(24*time.Hour), *block.ExpiresAt, 10*time.Second)

	// the persisted sample carries the blocked state too
	var stored models.TrafficSample
	require.NoError(t, db.First(&stored, "id = ?", res.Sample.ID).Error)
	assert.Equal(t, models.TrafficStateBlocked, stored.TrafficState)
}

func TestIngest_BenignSampleCreatesNoAlert(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestIngestService(db, &fakePredictor{})

	req := flowRequest()
	req.IsAttack = boolPtr(false)
	req.PredictedClass = "BENIGN"
	req.Confidence = floatPtr(0.94)

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.AlertCreated)
	assert.Nil(t, res.Alert)
	assert.Equal(t, models.TrafficStateNormal, res.Sample.TrafficState)
	assert.Empty(t, res.Sample.AttackType)

	var alerts int64
	require.NoError(t, db.Model(&models.Alert{}).Count(&alerts).Error)
	assert.Zero(t, alerts)
}

func TestIngest_MissingConfidenceCreatesNoAlert(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestIngestService(db, &fakePredictor{})

	req := flowRequest()
	req.IsAttack = boolPtr(true)
	req.PredictedClass = "Botnet"

	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.AlertCreated)
	assert.Equal(t, models.TrafficStateAttack, res.Sample.TrafficState)
}

func TestIngest_GatewayFailurePersistsNothing(t *testing.T) {
	db := setupTestDB(t)
	pred := &fakePredictor{err: errors.New("connection refused")}
	svc, _ := newTestIngestService(db, pred)

	_, err := svc.Ingest(context.Background(), flowRequest())
	require.Error(t, err)
	assert.Equal(t, KindGateway, KindOf(err))

	var samples int64
	require.NoError(t, db.Model(&models.TrafficSample{}).Count(&samples).Error)
	assert.Zero(t, samples)
}

func TestIngest_ClassifierPathBlocksAboveCutoff(t *testing.T) {
	db := setupTestDB(t)
	pred := &fakePredictor{pred: classifier.Prediction{IsAttack: true, AttackType: "DDoS", Confidence: 0.75}}
	svc, _ := newTestIngestService(db, pred)

	res, err := svc.Ingest(context.Background(), flowRequest())
	require.NoError(t, err)
	assert.True(t, res.Classified)
	require.True(t, res.AlertCreated)
	assert.Equal(t, 4, res.Alert.Severity)
	assert.True(t, res.Alert.AutoBlocked)
	assert.Equal(t, "DDoS", res.Sample.AttackType)
}

func TestAnalyze_IgnoresSuppliedVerdictAndNeverBlocks(t *testing.T) {
	db := setupTestDB(t)
	pred := &fakePredictor{pred: classifier.Prediction{IsAttack: true, AttackType: "BruteForce", Confidence: 0.99}}
	svc, _ := newTestIngestService(db, pred)

	req := flowRequest()
	req.IsAttack = boolPtr(false) // discarded: analysis always re-classifies
	req.Confidence = floatPtr(0.01)

	res, err := svc.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&pred.calls))
	require.True(t, res.AlertCreated)
	assert.Equal(t, 5, res.Alert.Severity)
	assert.Equal(t, models.AlertTierCritical, res.Alert.AlertType)
	assert.False(t, res.Alert.AutoBlocked)

	var blocks int64
	require.NoError(t, db.Model(&models.BlockedIP{}).Count(&blocks).Error)
	assert.Zero(t, blocks)
}

func TestIngest_RejectsInvalidRequests(t *testing.T) {
	db := setupTestDB(t)
	pred := &fakePredictor{}
	svc, _ := newTestIngestService(db, pred)

	cases := []struct {
		name   string
		mutate func(*IngestRequest)
	}{
		{"bad source ip", func(r *IngestRequest) { r.SrcIP = "not-an-ip" }},
		{"bad destination ip", func(r *IngestRequest) { r.DstIP = "999.1.1.1" }},
		{"port out of range", func(r *IngestRequest) { r.DstPort = 70000 }},
		{"missing protocol", func(r *IngestRequest) { r.Protocol = "" }},
		{"confidence above one", func(r *IngestRequest) { r.Confidence = floatPtr(1.5) }},
		{"unknown state", func(r *IngestRequest) {
			r.IsAttack = boolPtr(true)
			r.Confidence = floatPtr(0.9)
			r.State = "weird"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := flowRequest()
			tc.mutate(&req)
			_, err := svc.Ingest(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&pred.calls))
	var samples int64
	require.NoError(t, db.Model(&models.TrafficSample{}).Count(&samples).Error)
	assert.Zero(t, samples)
}

func TestIngest_LegacyStatesAreNormalized(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestIngestService(db, &fakePredictor{})

	req := flowRequest()
	req.IsAttack = boolPtr(false)
	req.State = "COMPLETED"
	res, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.TrafficStateNormal, res.Sample.TrafficState)

	req = flowRequest()
	req.IsAttack = boolPtr(true)
	req.Confidence = floatPtr(0.3)
	req.State = "ACTIVE"
	res, err = svc.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.TrafficStateAttack, res.Sample.TrafficState)
}

func TestIngest_PublishesAlertEventExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	svc, hub := newTestIngestService(db, &fakePredictor{})

	sub := hub.NewSubscription(8)
	hub.Subscribe(sub, live.TopicAlerts)
	defer hub.Drop(sub)

	req := flowRequest()
	req.IsAttack = boolPtr(true)
	req.PredictedClass = "DDoS"
	req.Confidence = floatPtr(0.95)

	_, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	select {
	case evt := <-sub.C:
		assert.Equal(t, live.EventNewAlert, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("no alert event delivered")
	}
	select {
	case evt := <-sub.C:
		t.Fatalf("unexpected second event %q", evt.Type)
	default:
	}
}

func TestIngest_ConcurrentSamplesAllPersist(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newTestIngestService(db, &fakePredictor{})

	const n = 8
	var wg sync.WaitGroup
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := flowRequest()
			req.IsAttack = boolPtr(false)
			_, err := svc.Ingest(context.Background(), req)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	var samples int64
	require.NoError(t, db.Model(&models.TrafficSample{}).Count(&samples).Error)
	assert.Equal(t, int64(n), samples)
}
