package mutations

import (
	"math"

	json "github.com/goccy/go-json"

	"policy-assistant/internal/model"
	"policy-assistant/internal/urgency"
)

type indexPremiumsProps struct {
	// Percentage is a fraction: 0.1 raises premiums by ten percent.
	Percentage float64          `json:"percentage"`
	Type       model.PolicyType `json:"type,omitempty"`
	EndBefore  string           `json:"end_before,omitempty"`
}

// IndexPremiumsHandler scales premiums by a percentage, optionally limited to one
// policy type and/or policies ending before a date.
type IndexPremiumsHandler struct{}

func (h *IndexPremiumsHandler) Validate(state *State, mutation *model.Mutation) []model.Message {
	if len(state.Policies) == 0 {
		return []model.Message{critical(CodeNoPolicies, "There are no policies to index")}
	}

	var props indexPremiumsProps
	if err := json.Unmarshal(mutation.MutationProperties, &props); err != nil {
		return []model.Message{critical(CodeInvalidProperty, "Invalid mutation_properties: "+err.Error())}
	}
	if props.Type != "" && !props.Type.Valid() {
		return []model.Message{critical(CodeInvalidType, "Unknown policy type: "+string(props.Type))}
	}
	if props.EndBefore != "" {
		if _, ok := urgency.ParseDate(props.EndBefore); !ok {
			return []model.Message{critical(CodeInvalidDate, "end_before must be YYYY-MM-DD")}
		}
	}
	return nil
}

func (h *IndexPremiumsHandler) Apply(state *State, mutation *model.Mutation) []model.Message {
	var props indexPremiumsProps
	json.Unmarshal(mutation.MutationProperties, &props)

	var msgs []model.Message
	hasFilter := props.Type != "" || props.EndBefore != ""

	matched := false
	for i := range state.Policies {
		if !matchesFilter(state.Policies[i], props) {
			continue
		}
		matched = true

		before := state.Policies[i]
		premium := math.Round(before.Premium*(1+props.Percentage)*100) / 100
		if premium < 0 {
			premium = 0
			msgs = append(msgs, warning(CodePremiumClamped, "Premium for policy "+before.ID+" clamped to 0"))
		}
		if !validPremium(premium) {
			return append(msgs, critical(CodeInvalidPremium, "Indexed premium for policy "+before.ID+" exceeds 1e12"))
		}
		if premium == before.Premium {
			continue
		}

		state.Policies[i].Premium = premium
		after := state.Policies[i]
		state.Changes = append(state.Changes, Change{Type: ChangeUpdated, Before: &before, After: &after})
	}

	if hasFilter && !matched {
		msgs = append([]model.Message{warning(CodeNoMatches, "No policies match the provided filter criteria")}, msgs...)
	}

	return msgs
}

func matchesFilter(p model.Policy, props indexPremiumsProps) bool {
	if props.Type != "" && p.Type != props.Type {
		return false
	}
	if props.EndBefore != "" && urgency.NormalizeDate(p.EndDate) >= props.EndBefore {
		return false
	}
	return true
}
