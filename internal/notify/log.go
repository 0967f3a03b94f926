package notify

import (
	"context"

	"policy-assistant/internal/logger"
	"policy-assistant/internal/metrics"
)

// LogPublisher writes events to the log when no broker is configured.
type LogPublisher struct {
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewLogPublisher(log *logger.Logger, m *metrics.Metrics) *LogPublisher {
	return &LogPublisher{log: log, metrics: m}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	entry := p.log.Info().
		Str("event", event.Type).
		Str("policy_id", event.PolicyID).
		Int("patch_ops", len(event.Patch))
	if event.Urgency != nil {
		entry = entry.Int("days_remaining", event.Urgency.DaysRemaining)
	}
	entry.Msg("policy event")

	p.metrics.RecordEvent(event.Type, "logged")
	return nil
}
