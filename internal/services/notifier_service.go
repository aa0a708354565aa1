package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"

	"github.com/netsentinel/console/backend/internal/logger"
	"github.com/netsentinel/console/backend/internal/models"
)

// AlertNotifier pushes critical alerts to external channels (Discord, Slack,
// email, anything shoutrrr speaks). Best-effort: delivery failures are
// logged and never reach the ingestion caller.
type AlertNotifier struct {
	URLs []string
}

func NewAlertNotifier(urls []string) *AlertNotifier {
	return &AlertNotifier{URLs: urls}
}

// NotifyCritical fans the alert out asynchronously.
func (n *AlertNotifier) NotifyCritical(alert *models.Alert, sample *models.TrafficSample) {
	if len(n.URLs) == 0 {
		return
	}

	msg := fmt.Sprintf("%s (severity %d)\n\n%s", alert.Title, alert.Severity, alert.Description)
	if alert.AutoBlocked {
		msg += fmt.Sprintf("\nSource %s auto-blocked.", sample.SourceIP)
	}

	for _, url := range n.URLs {
		go func(u string) {
			if err := shoutrrr.Send(u, msg); err != nil {
				logger.WithFields(map[string]interface{}{"alert_id": alert.ID}).
					WithError(err).Error("failed to push alert notification")
			}
		}(url)
	}
}
