package io

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

func builtinTemplate(t *testing.T, id string) Template {
	t.Helper()
	ts, err := BuiltinTemplates()
	if err != nil {
		t.Fatal(err)
	}
	tmpl, err := FindTemplate(ts, id)
	if err != nil {
		t.Fatal(err)
	}
	return tmpl
}

func TestBuiltinTemplatesInstantiate(t *testing.T) {
	ts, err := BuiltinTemplates()
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, tmpl := range ts {
		ids = append(ids, tmpl.ID)
		t.Run(tmpl.ID, func(t *testing.T) {
			c, snap, err := Instantiate(tmpl, catalog.MustBuiltin(), CanvasMeta{})
			if err != nil {
				t.Fatalf("Instantiate: %v", err)
			}
			if c.Status != workflow.StatusDraft || c.Name != tmpl.Name {
				t.Errorf("canvas record = %q, %q", c.Name, c.Status)
			}
			if snap.NodeCount() == 0 || len(c.Nodes) != snap.NodeCount() || len(c.Edges) != snap.EdgeCount() {
				t.Errorf("canvas has %d nodes, %d edges; snapshot %d, %d", len(c.Nodes), len(c.Edges), snap.NodeCount(), snap.EdgeCount())
			}
		})
	}
	want := []string{"invoice_processing", "customer_onboarding", "contract_review", "expense_report", "support_ticket_routing"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("template ids (-want +got):\n%s", diff)
	}
}

func TestInstantiateInvoice(t *testing.T) {
	tmpl := builtinTemplate(t, "invoice_processing")
	c, snap, err := Instantiate(tmpl, catalog.MustBuiltin(), CanvasMeta{ID: "wf-7", Name: "Ada Lovelace", Status: workflow.StatusActive})
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "wf-7" || c.Name != "Invoice Processing Workflow - Ada Lovelace" || c.Status != workflow.StatusDraft {
		t.Errorf("record = %q %q %q", c.ID, c.Name, c.Status)
	}
	if !strings.HasPrefix(c.Description, "Created from template: Automated invoice processing") {
		t.Errorf("description = %q", c.Description)
	}

	decision, ok := snap.Node("decision_1")
	if !ok || decision.TypeID != "decision" {
		t.Fatalf("decision_1 = %+v", decision)
	}
	conds, _ := decision.Config["conditions"].([]any)
	if len(conds) != 1 {
		t.Errorf("conditions = %#v", decision.Config["conditions"])
	}
	out := snap.Outgoing("approval_1")
	if len(out) != 1 || out[0].Condition != workflow.ConditionApprovalYes || out[0].Target != "integration_1" {
		t.Errorf("approval_1 outgoing = %+v", out)
	}
}

func TestInstantiateKeepsDescription(t *testing.T) {
	tmpl := builtinTemplate(t, "contract_review")
	c, _, err := Instantiate(tmpl, catalog.MustBuiltin(), CanvasMeta{Name: "  ", Description: "Q3 vendor contracts"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "Contract Review and Approval" || c.Description != "Q3 vendor contracts" {
		t.Errorf("record = %q, %q", c.Name, c.Description)
	}
}

func TestInstantiateLegacyTemplate(t *testing.T) {
	tmpl := Template{
		ID:   "legacy",
		Name: "Legacy",
		Definition: []byte(`{
		  "nodes": [
		    {"node_id": "s", "type": "start", "name": "Start", "config": {}},
		    {"node_id": "e", "type": "end", "name": "End", "config": {}}
		  ],
		  "edges": [{"source": "s", "target": "e", "condition_type": "success"}]
		}`),
	}
	_, snap, err := Instantiate(tmpl, catalog.MustBuiltin(), CanvasMeta{})
	if err != nil {
		t.Fatal(err)
	}
	if edges := snap.Edges(); len(edges) != 1 || edges[0].Condition != workflow.ConditionOnSuccess {
		t.Errorf("edges = %+v", edges)
	}
}

func TestInstantiateRejectsBrokenTemplate(t *testing.T) {
	tmpl := Template{
		ID:         "broken",
		Name:       "Broken",
		Definition: []byte(`{"version": 1, "nodes": [{"node_id": "x", "type_id": "teleport", "name": "Beam", "config": {}}], "edges": []}`),
	}
	_, _, err := Instantiate(tmpl, catalog.MustBuiltin(), CanvasMeta{})
	var de *DeserializeError
	if !errors.As(err, &de) || !de.Has(ferrors.ErrCodeUnknownType) {
		t.Fatalf("err = %v, want unknown type", err)
	}
}

func TestReadTemplatesReportsEveryIssue(t *testing.T) {
	_, err := ReadTemplates(strings.NewReader(`{"templates": [
	  {"id": "a", "name": "A", "definition": {"nodes": [], "edges": []}},
	  {"id": "a", "name": "", "definition": {"nodes": [], "edges": []}},
	  {"id": "", "name": "C"}
	]}`))
	got := map[string]ferrors.Code{}
	for _, e := range ferrors.Issues(err) {
		got[e.Field] = e.Code
	}
	want := map[string]ferrors.Code{
		"templates[1].id":         ferrors.ErrCodeDuplicateID,
		"templates[1].name":       ferrors.ErrCodeInvalidInput,
		"templates[2].id":         ferrors.ErrCodeInvalidInput,
		"templates[2].definition": ferrors.ErrCodeInvalidInput,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issues (-want +got):\n%s", diff)
	}

	if _, err := ReadTemplates(strings.NewReader(`{"templates": 3}`)); err == nil {
		t.Error("malformed document accepted")
	}
}

func TestFilterTemplates(t *testing.T) {
	ts, err := BuiltinTemplates()
	if err != nil {
		t.Fatal(err)
	}
	names := func(ts []Template) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.Name)
		}
		return out
	}

	tests := []struct {
		category, query string
		want            []string
	}{
		{"customer_service", "", []string{"Customer Onboarding Workflow", "Support Ticket Routing"}},
		{"", "FINANCE", []string{"Expense Report Processing", "Invoice Processing Workflow"}},
		{"approval", "legal", []string{"Contract Review and Approval"}},
		{"approval", "invoice", nil},
	}
	for _, tt := range tests {
		got := names(FilterTemplates(ts, tt.category, tt.query))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("FilterTemplates(%q, %q) (-want +got):\n%s", tt.category, tt.query, diff)
		}
	}
}

func TestFindTemplateUnknown(t *testing.T) {
	ts, _ := BuiltinTemplates()
	if _, err := FindTemplate(ts, "payroll"); !ferrors.Is(err, ferrors.ErrCodeNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestTemplateSummary(t *testing.T) {
	tmpl := builtinTemplate(t, "expense_report")
	if s := tmpl.Summary(); s.Definition != nil || s.Name != tmpl.Name {
		t.Errorf("Summary() = %+v", s)
	}
	if len(tmpl.Definition) == 0 {
		t.Error("Summary modified the template")
	}
}
