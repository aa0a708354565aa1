package services

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/netsentinel/console/backend/internal/logger"
)

// SimulatorService feeds synthetic flows through the full ingestion pipeline
// on a schedule, for demos and dashboards with no live capture attached.
type SimulatorService struct {
	Ingest *IngestService
}

func NewSimulatorService(ingest *IngestService) *SimulatorService {
	return &SimulatorService{Ingest: ingest}
}

var simAttackTypes = []string{"DDoS", "PortScan", "BruteForce", "Botnet", "WebAttack"}

var simProtocols = []string{"TCP", "UDP", "ICMP"}

// Run ingests one synthetic sample. Roughly one in five is an attack with a
// random confidence, so the whole policy range gets exercised over time.
func (s *SimulatorService) Run() {
	req := IngestRequest{
		SrcIP:           fmt.Sprintf("10.%d.%d.%d", rand.Intn(255), rand.Intn(255), rand.Intn(254)+1),
		DstIP:           fmt.Sprintf("192.168.1.%d", rand.Intn(254)+1),
		SrcPort:         1024 + rand.Intn(64000),
		DstPort:         []int{22, 53, 80, 443, 8080}[rand.Intn(5)],
		Protocol:        simProtocols[rand.Intn(len(simProtocols))],
		PacketSize:      64 + rand.Intn(1400),
		FlowDuration:    rand.Float64() * 10,
		TotalFwdPackets: int64(rand.Intn(1000)),
		TotalBwdPackets: int64(rand.Intn(1000)),
		FlowBytesPerSec: rand.Float64() * 100000,
		FlowPktsPerSec:  rand.Float64() * 200,
	}

	isAttack := rand.Intn(5) == 0
	req.IsAttack = &isAttack
	if isAttack {
		confidence := 0.4 + rand.Float64()*0.6
		req.Confidence = &confidence
		req.PredictedClass = simAttackTypes[rand.Intn(len(simAttackTypes))]
	} else {
		confidence := 0.7 + rand.Float64()*0.3
		req.Confidence = &confidence
		req.PredictedClass = "BENIGN"
	}

	if _, err := s.Ingest.Ingest(context.Background(), req); err != nil {
		logger.Log().WithError(err).Warn("simulated ingestion failed")
	}
}
