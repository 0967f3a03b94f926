package model

import json "github.com/goccy/go-json"

type Mutation struct {
	MutationID             string          `json:"mutation_id,omitempty"`
	MutationDefinitionName string          `json:"mutation_definition_name"`
	Policy                 *Policy         `json:"policy,omitempty"`
	PolicyID               string          `json:"policy_id,omitempty"`
	MutationProperties     json.RawMessage `json:"mutation_properties,omitempty"`
}

const (
	MutationAddPolicy     = "add_policy"
	MutationUpdatePolicy  = "update_policy"
	MutationDeletePolicy  = "delete_policy"
	MutationIndexPremiums = "index_premiums"
)

type BatchRequest struct {
	Mutations []Mutation `json:"mutations"`
}

type ChatRequest struct {
	Text string `json:"text"`
}
