package workflow

import (
	"math"
	"testing"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
)

func validNode(id string, typeID catalog.TypeID) Node {
	return Node{
		ID:             id,
		TypeID:         typeID,
		Name:           "Node " + id,
		Required:       true,
		TimeoutSeconds: DefaultTimeoutSeconds,
		RetryCount:     DefaultRetryCount,
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder(catalog.MustBuiltin())

	if err := b.AddNode(validNode("s", "start")); err != nil {
		t.Fatal(err)
	}
	appr := validNode("a", "human_approval")
	appr.Config = map[string]any{"timeout_hours": 48.0}
	if err := b.AddNode(appr); err != nil {
		t.Fatal(err)
	}
	if err := b.AddNode(validNode("e", "end")); err != nil {
		t.Fatal(err)
	}

	id, err := b.AddEdge(Edge{ID: "x1", Source: "s", Target: "a", Condition: ConditionAlways})
	if err != nil || id != "x1" {
		t.Fatalf("AddEdge = %q, %v", id, err)
	}
	generated, err := b.AddEdge(Edge{Source: "a", Target: "e", Condition: ConditionApprovalYes})
	if err != nil || generated == "" {
		t.Fatalf("AddEdge without id = %q, %v", generated, err)
	}
	if _, err := b.AddEdge(Edge{ID: "x1", Source: "a", Target: "e", Condition: ConditionApprovalNo}); !ferrors.Is(err, ferrors.ErrCodeDuplicateID) {
		t.Errorf("reused edge id: err = %v, want DUPLICATE_ID", err)
	}

	snap := b.Snapshot()
	if snap.Version() != 0 || snap.NodeCount() != 3 || snap.EdgeCount() != 2 {
		t.Fatalf("snapshot: v%d, %d nodes, %d edges", snap.Version(), snap.NodeCount(), snap.EdgeCount())
	}
	a, _ := snap.Node("a")
	if a.Config["timeout_hours"] != int64(48) {
		t.Errorf("timeout_hours = %#v, want int64(48)", a.Config["timeout_hours"])
	}
	if a.Config["auto_approve_threshold"] != 0.8 {
		t.Errorf("missing fields should take their defaults, got %v", a.Config)
	}
}

func TestBuilderReportsEveryNodeIssue(t *testing.T) {
	b := NewBuilder(catalog.MustBuiltin())
	if err := b.AddNode(validNode("s", "start")); err != nil {
		t.Fatal(err)
	}

	bad := validNode("s", "human_approval")
	bad.Name = ""
	bad.TimeoutSeconds = 0
	bad.RetryCount = 11
	bad.Position = Position{X: math.Inf(1)}
	bad.Config = map[string]any{"auto_approve_threshold": 1.5, "colour": "red"}

	err := b.AddNode(bad)
	issues := ferrors.Issues(err)

	want := map[string]ferrors.Code{
		"node_id":                       ferrors.ErrCodeDuplicateNode,
		"name":                          ferrors.ErrCodeOutOfRange,
		"timeout_seconds":               ferrors.ErrCodeOutOfRange,
		"retry_count":                   ferrors.ErrCodeOutOfRange,
		"position":                      ferrors.ErrCodeOutOfRange,
		"config.auto_approve_threshold": ferrors.ErrCodeFieldConstraint,
		"config.colour":                 ferrors.ErrCodeUnknownField,
	}
	if len(issues) != len(want) {
		t.Fatalf("got %d issues, want %d: %v", len(issues), len(want), err)
	}
	for _, e := range issues {
		if want[e.Field] != e.Code {
			t.Errorf("issue %s: code %s, want %s", e.Field, e.Code, want[e.Field])
		}
	}
	if b.Snapshot().NodeCount() != 1 {
		t.Error("a rejected node must not be added")
	}
}

func TestBuilderUnknownType(t *testing.T) {
	b := NewBuilder(catalog.MustBuiltin())
	err := b.AddNode(validNode("x", "teleporter"))
	if !ferrors.Is(err, ferrors.ErrCodeUnknownType) {
		t.Errorf("err = %v, want UNKNOWN_TYPE", err)
	}
	if b.HasNode("x") {
		t.Error("node with unknown type should not be added")
	}
}

func TestConditionAllowed(t *testing.T) {
	tests := []struct {
		cat  catalog.Category
		want []ConditionKind
	}{
		{catalog.CategoryStart, []ConditionKind{ConditionAlways, ConditionOnSuccess, ConditionOnFailure}},
		{catalog.CategoryProcess, []ConditionKind{ConditionAlways, ConditionOnSuccess, ConditionOnFailure}},
		{catalog.CategoryDecision, []ConditionKind{ConditionAlways, ConditionOnSuccess, ConditionOnFailure, ConditionConditional}},
		{catalog.CategoryApproval, []ConditionKind{ConditionAlways, ConditionOnSuccess, ConditionOnFailure, ConditionApprovalYes, ConditionApprovalNo}},
		{catalog.CategoryEnd, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			got := AllowedConditions(tt.cat)
			if len(got) != len(tt.want) {
				t.Fatalf("AllowedConditions(%s) = %v, want %v", tt.cat, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("AllowedConditions(%s) = %v, want %v", tt.cat, got, tt.want)
				}
			}
		})
	}
	if ConditionAllowed(catalog.CategoryDecision, "never") {
		t.Error("unknown kinds are never allowed")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusDraft, StatusActive, true},
		{StatusDraft, StatusArchived, true},
		{StatusDraft, StatusPaused, false},
		{StatusActive, StatusPaused, true},
		{StatusActive, StatusDraft, false},
		{StatusPaused, StatusActive, true},
		{StatusInactive, StatusActive, true},
		{StatusInactive, StatusPaused, false},
		{StatusArchived, StatusActive, false},
		{StatusActive, StatusActive, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
	if len(NextStatuses(StatusArchived)) != 0 {
		t.Error("archived is terminal")
	}
	if Status("deleted").Valid() {
		t.Error("unknown status should be invalid")
	}
}
