package mutations

import (
	"policy-assistant/internal/model"
)

type DeletePolicyHandler struct{}

func targetID(mutation *model.Mutation) string {
	if mutation.PolicyID != "" {
		return mutation.PolicyID
	}
	if mutation.Policy != nil {
		return mutation.Policy.ID
	}
	return ""
}

func (h *DeletePolicyHandler) Validate(state *State, mutation *model.Mutation) []model.Message {
	id := targetID(mutation)
	if state.indexOf(id) < 0 {
		return []model.Message{critical(CodePolicyNotFound, "No policy with id "+id)}
	}
	return nil
}

func (h *DeletePolicyHandler) Apply(state *State, mutation *model.Mutation) []model.Message {
	i := state.indexOf(targetID(mutation))
	removed := state.Policies[i]

	state.Policies = append(state.Policies[:i:i], state.Policies[i+1:]...)
	state.Changes = append(state.Changes, Change{Type: ChangeDeleted, Before: &removed})
	return nil
}
