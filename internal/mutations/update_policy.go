package mutations

import (
	"policy-assistant/internal/model"
)

type UpdatePolicyHandler struct{}

func (h *UpdatePolicyHandler) Validate(state *State, mutation *model.Mutation) []model.Message {
	if mutation.Policy == nil {
		return []model.Message{critical(CodeMissingPolicy, "update_policy requires a policy")}
	}
	if state.indexOf(mutation.Policy.ID) < 0 {
		return []model.Message{critical(CodePolicyNotFound, "No policy with id "+mutation.Policy.ID)}
	}

	p := normalize(*mutation.Policy, state.Now)
	msgs := validateFields(p)
	if model.HasCritical(msgs) {
		return msgs
	}
	return append(msgs, duplicatePlate(state, p)...)
}

// Apply replaces every field except the id.
func (h *UpdatePolicyHandler) Apply(state *State, mutation *model.Mutation) []model.Message {
	p := normalize(*mutation.Policy, state.Now)
	i := state.indexOf(p.ID)

	before := state.Policies[i]
	state.Policies[i] = p
	if before != p {
		state.Changes = append(state.Changes, Change{Type: ChangeUpdated, Before: &before, After: &p})
	}
	return nil
}
