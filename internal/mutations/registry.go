package mutations

import "policy-assistant/internal/model"

var registry = map[string]MutationHandler{
	model.MutationAddPolicy:     &AddPolicyHandler{},
	model.MutationUpdatePolicy:  &UpdatePolicyHandler{},
	model.MutationDeletePolicy:  &DeletePolicyHandler{},
	model.MutationIndexPremiums: &IndexPremiumsHandler{},
}

func Get(name string) (MutationHandler, bool) {
	h, ok := registry[name]
	return h, ok
}
