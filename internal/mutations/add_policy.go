package mutations

import (
	"policy-assistant/internal/model"
)

type AddPolicyHandler struct{}

func (h *AddPolicyHandler) Validate(state *State, mutation *model.Mutation) []model.Message {
	if mutation.Policy == nil {
		return []model.Message{critical(CodeMissingPolicy, "add_policy requires a policy")}
	}

	p := normalize(*mutation.Policy, state.Now)
	msgs := validateFields(p)

	if p.ID != "" && state.indexOf(p.ID) >= 0 {
		msgs = append(msgs, critical(CodeDuplicateID, "A policy with id "+p.ID+" already exists"))
	}
	if model.HasCritical(msgs) {
		return msgs
	}

	// Same plate on two policies is allowed, e.g. Traffic and Casco for one car
	return append(msgs, duplicatePlate(state, p)...)
}

func (h *AddPolicyHandler) Apply(state *State, mutation *model.Mutation) []model.Message {
	p := normalize(*mutation.Policy, state.Now)
	if p.ID == "" {
		p.ID = state.NewID()
	}

	state.Policies = append(state.Policies, p)
	state.Changes = append(state.Changes, Change{Type: ChangeCreated, After: &p})
	return nil
}
