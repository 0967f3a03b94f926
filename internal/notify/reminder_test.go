package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"policy-assistant/internal/logger"
	"policy-assistant/internal/model"
)

type staticSource []model.Policy

func (s staticSource) List() []model.Policy { return s }

type recordingPublisher struct {
	events []Event
	fail   bool
}

func (p *recordingPublisher) Publish(_ context.Context, e Event) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, e)
	return nil
}

func TestSweepPublishesUrgentOncePerDay(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	source := staticSource{
		{ID: "expired", EndDate: "2026-10-05"},
		{ID: "urgent", EndDate: "2026-10-30"},
		{ID: "soon", EndDate: "2026-12-01"},
		{ID: "healthy", EndDate: "2027-06-01"},
	}
	pub := &recordingPublisher{}
	r := NewReminder(source, pub, logger.Nop(), 365)

	if n := r.Sweep(context.Background(), now); n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
	if pub.events[0].PolicyID != "urgent" || pub.events[0].Type != EventExpiring {
		t.Fatalf("unexpected event %+v", pub.events[0])
	}
	if pub.events[0].Urgency.DaysRemaining != 15 {
		t.Fatalf("expected 15 days remaining, got %d", pub.events[0].Urgency.DaysRemaining)
	}

	if n := r.Sweep(context.Background(), now.Add(3*time.Hour)); n != 0 {
		t.Fatalf("expected no repeat on the same day, got %d", n)
	}
	if n := r.Sweep(context.Background(), now.Add(24*time.Hour)); n != 1 {
		t.Fatalf("expected a reminder on the next day, got %d", n)
	}
}

func TestSweepRetriesAfterPublishFailure(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{fail: true}
	r := NewReminder(staticSource{{ID: "urgent", EndDate: "2026-10-20"}}, pub, logger.Nop(), 365)

	if n := r.Sweep(context.Background(), now); n != 0 {
		t.Fatalf("expected 0 on failure, got %d", n)
	}
	pub.fail = false
	if n := r.Sweep(context.Background(), now); n != 1 {
		t.Fatalf("expected the reminder once the broker recovers, got %d", n)
	}
}

func TestSweepForgetsPoliciesNoLongerUrgent(t *testing.T) {
	now := time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)
	source := &mutableSource{policies: []model.Policy{
		{ID: "renewed", EndDate: "2026-10-30"},
		{ID: "deleted", EndDate: "2026-10-25"},
	}}
	r := NewReminder(source, &recordingPublisher{}, logger.Nop(), 365)

	if n := r.Sweep(context.Background(), now); n != 2 {
		t.Fatalf("expected 2 reminders, got %d", n)
	}

	source.policies = []model.Policy{{ID: "renewed", EndDate: "2027-10-30"}}
	r.Sweep(context.Background(), now)
	if len(r.sent) != 0 {
		t.Fatalf("expected no remembered reminders, got %v", r.sent)
	}

	// Back to urgent on the same day: remind again
	source.policies = []model.Policy{{ID: "renewed", EndDate: "2026-10-30"}}
	if n := r.Sweep(context.Background(), now); n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
}

type mutableSource struct {
	policies []model.Policy
}

func (s *mutableSource) List() []model.Policy { return s.policies }
