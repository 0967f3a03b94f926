package mutations

import (
	"time"

	"policy-assistant/internal/model"
)

// MutationHandler defines the contract for all policy mutations.
// Validate checks business rules without touching state; Apply performs the change.
type MutationHandler interface {
	Validate(state *State, mutation *model.Mutation) []model.Message
	Apply(state *State, mutation *model.Mutation) []model.Message
}

// State is the working copy a mutation runs against.
type State struct {
	Policies []model.Policy
	Now      time.Time
	NewID    func() string
	Changes  []Change
}

const (
	ChangeCreated = "policy.created"
	ChangeUpdated = "policy.updated"
	ChangeDeleted = "policy.deleted"
)

// Change records one policy touched by Apply. Before is nil for creations, After for deletions.
type Change struct {
	Type   string
	Before *model.Policy
	After  *model.Policy
}

// NewState copies policies so mutations never alias the caller's slice.
func NewState(policies []model.Policy, now time.Time, newID func() string) *State {
	return &State{
		Policies: append([]model.Policy(nil), policies...),
		Now:      now,
		NewID:    newID,
	}
}

func (s *State) indexOf(id string) int {
	for i := range s.Policies {
		if s.Policies[i].ID == id {
			return i
		}
	}
	return -1
}
