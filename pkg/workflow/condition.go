package workflow

import (
	"slices"

	"github.com/matzehuels/flowgraph/pkg/catalog"
)

// ConditionKind declares when an edge fires.
type ConditionKind string

const (
	ConditionAlways      ConditionKind = "always"
	ConditionOnSuccess   ConditionKind = "on-success"
	ConditionOnFailure   ConditionKind = "on-failure"
	ConditionConditional ConditionKind = "conditional"
	ConditionApprovalYes ConditionKind = "approval-yes"
	ConditionApprovalNo  ConditionKind = "approval-no"
)

// Conditions lists the closed set of condition kinds.
var Conditions = []ConditionKind{
	ConditionAlways,
	ConditionOnSuccess,
	ConditionOnFailure,
	ConditionConditional,
	ConditionApprovalYes,
	ConditionApprovalNo,
}

// Valid reports whether k is one of [Conditions].
func (k ConditionKind) Valid() bool { return slices.Contains(Conditions, k) }

// conditionSources restricts condition kinds to source categories.
// Kinds missing from the table may leave any node that has outputs.
var conditionSources = map[ConditionKind][]catalog.Category{
	ConditionConditional: {catalog.CategoryDecision},
	ConditionApprovalYes: {catalog.CategoryApproval},
	ConditionApprovalNo:  {catalog.CategoryApproval},
}

// ConditionAllowed reports whether an edge of kind k may leave a node of
// category source. End nodes have no outgoing edges of any kind.
func ConditionAllowed(source catalog.Category, k ConditionKind) bool {
	if !k.Valid() || source == catalog.CategoryEnd {
		return false
	}
	allowed, restricted := conditionSources[k]
	return !restricted || slices.Contains(allowed, source)
}

// AllowedConditions returns the kinds that may leave a node of the given
// category, in [Conditions] order. The editor uses it to offer choices.
func AllowedConditions(source catalog.Category) []ConditionKind {
	var out []ConditionKind
	for _, k := range Conditions {
		if ConditionAllowed(source, k) {
			out = append(out, k)
		}
	}
	return out
}
