// Package policy maps classifier output onto alerting and blocking
// decisions. Policies are total functions: every (isAttack, confidence)
// pair yields a decision and there is no error path.
package policy

import (
	"github.com/netsentinel/console/backend/internal/config"
	"github.com/netsentinel/console/backend/internal/models"
)

// Decision is the outcome of evaluating one classified sample.
type Decision struct {
	CreateAlert bool
	Severity    int // 1..5, meaningful only when CreateAlert
	Tier        models.AlertTier
	AutoBlock   bool
}

// Policy decides whether a classified sample warrants an alert and an
// automatic block.
type Policy interface {
	Name() string
	Evaluate(isAttack bool, confidence *float64) Decision
}

type thresholdPolicy struct {
	name string
	t    config.PolicyThresholds
}

// New builds a threshold policy. Boundary comparisons are inclusive upward:
// a confidence exactly at a cutoff lands in the higher tier. Absent
// confidence sits below every threshold.
func New(name string, t config.PolicyThresholds) Policy {
	return &thresholdPolicy{name: name, t: t}
}

// NewIngestPolicy is the policy applied to directly logged traffic:
// defaults 0.50/0.70/0.90 with auto-block from 0.70.
func NewIngestPolicy(t config.PolicyThresholds) Policy {
	return New("ingest", t)
}

// NewAnalysisPolicy is the policy applied to gateway-classified traffic:
// defaults 0.85/0.95 and never auto-blocks.
func NewAnalysisPolicy(t config.PolicyThresholds) Policy {
	return New("analysis", t)
}

func (p *thresholdPolicy) Name() string { return p.name }

func (p *thresholdPolicy) Evaluate(isAttack bool, confidence *float64) Decision {
	if !isAttack || confidence == nil {
		return Decision{}
	}
	conf := *confidence

	var d Decision
	switch {
	case conf >= p.t.Critical:
		d = Decision{CreateAlert: true, Severity: 5, Tier: models.AlertTierCritical}
	case conf >= p.t.High:
		d = Decision{CreateAlert: true, Severity: 4, Tier: models.AlertTierHigh}
	case conf >= p.t.Low:
		d = Decision{CreateAlert: true, Severity: 3, Tier: models.AlertTierHigh}
	default:
		return Decision{}
	}

	if p.t.Block > 0 && conf >= p.t.Block {
		d.AutoBlock = true
	}
	return d
}
