// Package notify publishes policy change events and expiry reminders.
package notify

import (
	"context"
	"time"

	"policy-assistant/internal/jsonpatch"
	"policy-assistant/internal/model"
)

const EventExpiring = "policy.expiring"

type Event struct {
	Type     string         `json:"type"`
	PolicyID string         `json:"policy_id"`
	Policy   *model.Policy  `json:"policy,omitempty"`
	Patch    []jsonpatch.Op `json:"patch,omitempty"`
	Urgency  *model.Urgency `json:"urgency,omitempty"`
	At       time.Time      `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
