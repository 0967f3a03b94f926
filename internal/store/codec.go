package store

import (
	"errors"

	json "github.com/goccy/go-json"

	"policy-assistant/internal/model"
)

var errNullCollection = errors.New("stored collection is null")

// Encode serializes the whole collection as a JSON array.
func Encode(policies []model.Policy) ([]byte, error) {
	if policies == nil {
		policies = []model.Policy{}
	}
	return json.Marshal(policies)
}

// Decode parses a stored collection. "null" is treated as corrupt, "[]" as a
// deliberately empty store.
func Decode(data []byte) ([]model.Policy, error) {
	var policies []model.Policy
	if err := json.Unmarshal(data, &policies); err != nil {
		return nil, err
	}
	if policies == nil {
		return nil, errNullCollection
	}
	return policies, nil
}
