package store

import (
	"testing"

	"policy-assistant/internal/model"
)

func TestEncodeDecodeKeepsOrderAndFields(t *testing.T) {
	policies := append(Seed(), model.Policy{
		ID:          "4",
		PlateNumber: "16KLM42",
		HolderName:  "Zeynep Şahin",
		Type:        model.PolicyTypeHealth,
		StartDate:   "2026-03-01",
		EndDate:     "2027-03-01",
		Premium:     1234.56,
	})

	data, err := Encode(policies)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got) != len(policies) {
		t.Fatalf("expected %d policies, got %d", len(policies), len(got))
	}
	for i := range policies {
		if got[i] != policies[i] {
			t.Fatalf("policy %d changed:\n got  %+v\n want %+v", i, got[i], policies[i])
		}
	}
}

func TestEncodeEmptyCollection(t *testing.T) {
	for _, policies := range [][]model.Policy{nil, {}} {
		data, err := Encode(policies)
		if err != nil || string(data) != "[]" {
			t.Fatalf("expected [], got %s (err %v)", data, err)
		}
		got, err := Decode(data)
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("expected an empty non-nil collection, got %v (err %v)", got, err)
		}
	}
}
