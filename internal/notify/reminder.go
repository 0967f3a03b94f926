package notify

import (
	"context"
	"sync"
	"time"

	"policy-assistant/internal/logger"
	"policy-assistant/internal/model"
	"policy-assistant/internal/urgency"
)

type PolicySource interface {
	List() []model.Policy
}

// Reminder publishes policy.expiring for URGENT policies, at most once per policy per day.
type Reminder struct {
	source    PolicySource
	publisher Publisher
	log       *logger.Logger
	termDays  int

	mu   sync.Mutex
	sent map[string]string // policy id -> date of last reminder
}

func NewReminder(source PolicySource, publisher Publisher, log *logger.Logger, termDays int) *Reminder {
	return &Reminder{
		source:    source,
		publisher: publisher,
		log:       log,
		termDays:  termDays,
		sent:      make(map[string]string),
	}
}

// Sweep checks every policy at now and returns how many reminders went out.
func (r *Reminder) Sweep(ctx context.Context, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	today := urgency.FormatDate(now)
	published := 0
	urgent := make(map[string]bool)
	for _, p := range r.source.List() {
		u := urgency.Assess(p, now, r.termDays)
		if u.Tier != model.TierUrgent {
			continue
		}
		urgent[p.ID] = true
		if r.sent[p.ID] == today {
			continue
		}

		policy := p
		err := r.publisher.Publish(ctx, Event{
			Type:     EventExpiring,
			PolicyID: p.ID,
			Policy:   &policy,
			Urgency:  &u,
			At:       now,
		})
		if err != nil {
			r.log.Error().Err(err).Str("policy_id", p.ID).Msg("expiry reminder failed")
			continue
		}
		r.sent[p.ID] = today
		published++
	}

	// Deleted, renewed or expired policies no longer need a marker
	for id := range r.sent {
		if !urgent[id] {
			delete(r.sent, id)
		}
	}
	return published
}

// Run sweeps immediately and then on every tick until ctx is done.
func (r *Reminder) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	r.Sweep(ctx, time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Sweep(ctx, now)
		}
	}
}
