package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/privacyops/footprint/internal/config"
	"github.com/privacyops/footprint/internal/notify"
)

// ShouldAlert reports whether a scan's finding count strictly increased
// since the previous run.
func ShouldAlert(newCount, previousCount int) bool {
	return newCount > previousCount
}

// BuildAlertBody renders the plain-text alert email body.
func BuildAlertBody(personName, jobName string, newCount, previousCount int) string {
	delta := newCount - previousCount
	return fmt.Sprintf(
		"Digital Footprint Alert\n"+
			"=======================\n\n"+
			"Person: %s\n"+
			"Scan type: %s\n"+
			"Findings: %d total (%d new)\n"+
			"Previous: %d\n\n"+
			"Action: Review new findings and take appropriate steps.\n"+
			"Run footprint protect for a full pipeline scan.\n",
		personName, jobName, newCount, delta, previousCount,
	)
}

// Alerter emails the configured address when scheduled scans find more than
// last time.
type Alerter struct {
	cfg    *config.Config
	sender notify.Sender
	logger *zap.Logger
}

// NewAlerter wires the alerter over the engine configuration and sender.
func NewAlerter(cfg *config.Config, sender notify.Sender, logger *zap.Logger) *Alerter {
	return &Alerter{cfg: cfg, sender: sender, logger: logger.Named("alerter")}
}

// CheckAndAlert sends an alert iff the count strictly increased and alerting
// is configured. Returns whether an alert actually went out; delivery
// failures are logged and reported as not-sent, never propagated.
func (a *Alerter) CheckAndAlert(ctx context.Context, jobName string, newCount, previousCount int, personName string) bool {
	if !ShouldAlert(newCount, previousCount) {
		return false
	}
	if a.cfg.SMTPHost == "" || a.cfg.AlertEmail == "" {
		return false
	}

	delta := newCount - previousCount
	subject := fmt.Sprintf("[Digital Footprint] %d new findings for %s (%s)", delta, personName, jobName)
	body := BuildAlertBody(personName, jobName, newCount, previousCount)

	if err := a.sender.Send(ctx, []string{a.cfg.AlertEmail}, subject, body); err != nil {
		a.logger.Error("alert delivery failed", zap.String("job", jobName), zap.Error(err))
		return false
	}
	a.logger.Info("alert sent",
		zap.String("to", a.cfg.AlertEmail),
		zap.String("subject", subject),
	)
	return true
}
