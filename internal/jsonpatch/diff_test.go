package jsonpatch

import (
	"sort"
	"testing"
)

type doc struct {
	Plate   string   `json:"plateNumber"`
	Premium float64  `json:"premium"`
	Notes   string   `json:"notes,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

func TestBetweenReportsChangedFields(t *testing.T) {
	a := doc{Plate: "34ABC123", Premium: 4500, Notes: "old"}
	b := doc{Plate: "34ABC123", Premium: 4950, Tags: []string{"x"}}

	ops, err := Between(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })

	if len(ops) != 3 {
		t.Fatalf("expected 3 ops, got %+v", ops)
	}
	if ops[0].Op != "remove" || ops[0].Path != "/notes" {
		t.Fatalf("unexpected op %+v", ops[0])
	}
	if ops[1].Op != "replace" || ops[1].Path != "/premium" || ops[1].Value != 4950.0 {
		t.Fatalf("unexpected op %+v", ops[1])
	}
	if ops[2].Op != "add" || ops[2].Path != "/tags" {
		t.Fatalf("unexpected op %+v", ops[2])
	}
}

func TestBetweenIdenticalIsEmpty(t *testing.T) {
	a := doc{Plate: "34ABC123", Premium: 4500}
	ops, err := Between(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 0 {
		t.Fatalf("expected empty patch, got %+v", ops)
	}
}

func TestDiffArraysAndEscaping(t *testing.T) {
	a := map[string]interface{}{"a/b": []interface{}{1.0, 2.0, 3.0}}
	b := map[string]interface{}{"a/b": []interface{}{1.0}}

	ops := Diff(a, b, "")
	if len(ops) != 2 {
		t.Fatalf("expected 2 removals, got %+v", ops)
	}
	if ops[0].Path != "/a~1b/2" || ops[1].Path != "/a~1b/1" {
		t.Fatalf("expected descending escaped removals, got %+v", ops)
	}
}
