package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	samplesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netsentinel_samples_ingested_total",
		Help: "Total number of traffic samples persisted, by traffic state",
	}, []string{"state"})
	alertsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netsentinel_alerts_created_total",
		Help: "Total number of alerts created by the ingestion pipeline, by tier",
	}, []string{"tier"})
	ipsBlockedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netsentinel_ips_blocked_total",
		Help: "Total number of IP blocks created",
	})
	gatewayFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netsentinel_classifier_failures_total",
		Help: "Total number of failed classifier gateway calls",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(samplesIngestedTotal, alertsCreatedTotal, ipsBlockedTotal, gatewayFailuresTotal)
}

// IncSampleIngested increments the persisted samples counter.
func IncSampleIngested(state string) { samplesIngestedTotal.WithLabelValues(state).Inc() }

// IncAlertCreated increments the created alerts counter.
func IncAlertCreated(tier string) { alertsCreatedTotal.WithLabelValues(tier).Inc() }

// IncIPBlocked increments the blocked IPs counter.
func IncIPBlocked() { ipsBlockedTotal.Inc() }

// IncGatewayFailure increments the classifier failure counter.
func IncGatewayFailure() { gatewayFailuresTotal.Inc() }
