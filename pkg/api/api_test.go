package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/validate"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

const minimalDef = `{
  "version": 1,
  "nodes": [
    {"node_id": "start_1", "type_id": "start", "name": "Start", "config": {}},
    {"node_id": "end_1", "type_id": "end", "name": "End", "config": {}}
  ],
  "edges": [{"source": "start_1", "target": "end_1", "condition_type": "always"}]
}`

const startOnlyDef = `{
  "version": 1,
  "nodes": [{"node_id": "start_1", "type_id": "start", "name": "Start", "config": {}}],
  "edges": []
}`

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(catalog.MustBuiltin(), opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, []byte(buf.String())
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[map[string]any](t, body)
	if got["status"] != "ok" {
		t.Errorf("status = %v", got["status"])
	}
	if got["node_types"] != float64(catalog.MustBuiltin().Len()) {
		t.Errorf("node_types = %v", got["node_types"])
	}
}

func TestListCatalog(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodGet, "/catalog", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[struct {
		Categories []struct {
			Category  string `json:"category"`
			NodeTypes []struct {
				ID string `json:"id"`
			} `json:"node_types"`
		} `json:"categories"`
	}](t, body)
	if len(got.Categories) == 0 || got.Categories[0].Category != "start" {
		t.Fatalf("categories = %+v", got.Categories)
	}
	total := 0
	for _, c := range got.Categories {
		total += len(c.NodeTypes)
	}
	if total != catalog.MustBuiltin().Len() {
		t.Errorf("listed %d node types, want %d", total, catalog.MustBuiltin().Len())
	}

	_, body = do(t, ts, http.MethodGet, "/catalog?q=approval", "")
	if !strings.Contains(string(body), `"human_approval"`) || strings.Contains(string(body), `"crm_integration"`) {
		t.Errorf("search result = %s", body)
	}
}

func TestGetNodeType(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, http.MethodGet, "/catalog/human_approval", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if got := decode[map[string]any](t, body); got["id"] != "human_approval" {
		t.Errorf("id = %v", got["id"])
	}

	resp, body = do(t, ts, http.MethodGet, "/catalog/human_approval/defaults", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("defaults status = %d", resp.StatusCode)
	}
	if got := decode[map[string]any](t, body); got["timeout_hours"] != float64(24) {
		t.Errorf("timeout_hours default = %v", got["timeout_hours"])
	}

	resp, body = do(t, ts, http.MethodGet, "/catalog/teleport", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown type status = %d", resp.StatusCode)
	}
	if got := decode[errorBody](t, body); got.Code != ferrors.ErrCodeUnknownType {
		t.Errorf("code = %s", got.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := decode[errorBody](t, body); got.Code != ferrors.ErrCodeNotFound {
		t.Errorf("code = %s", got.Code)
	}
}

func TestValidateDefinition(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		activatable bool
		rule        validate.Rule
	}{
		{"activatable", minimalDef, true, ""},
		{"missing end", startOnlyDef, false, validate.RuleHasEnd},
	}
	ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts, http.MethodPost, "/definitions/validate", tt.body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, body)
			}
			got := decode[validationReport](t, body)
			if got.Activatable != tt.activatable {
				t.Errorf("activatable = %v, want %v", got.Activatable, tt.activatable)
			}
			if got.Violations == nil {
				t.Error("violations must be a list, got null")
			}
			if tt.rule != "" && !got.Violations.Has(tt.rule, "") {
				t.Errorf("missing %s in %v", tt.rule, got.Violations)
			}
		})
	}
}

func TestValidateDefinitionIssues(t *testing.T) {
	ts := newTestServer(t)
	body := `{"version": 1, "nodes": [
	  {"node_id": "a", "type_id": "human_approval", "name": "Approve", "config": {"timeout_hours": 500}},
	  {"node_id": "b", "type_id": "teleport", "name": "Beam", "config": {}}
	], "edges": []}`

	resp, data := do(t, ts, http.MethodPost, "/definitions/validate", body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	got := decode[errorBody](t, data)
	if len(got.Issues) != 2 {
		t.Fatalf("issues = %+v", got.Issues)
	}
	if got.Issues[0].Field != "nodes[0].config.timeout_hours" || got.Issues[1].Code != ferrors.ErrCodeUnknownType {
		t.Errorf("issues = %+v", got.Issues)
	}
}

func TestValidateDefinitionMalformed(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := do(t, ts, http.MethodPost, "/definitions/validate", `{"nodes": [`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestValidateDefinitionCached(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, WithCache(fc, 0))

	resp, first := do(t, ts, http.MethodPost, "/definitions/validate", minimalDef)
	if got := resp.Header.Get("X-Cache"); got != "MISS" {
		t.Errorf("first X-Cache = %q", got)
	}
	resp, second := do(t, ts, http.MethodPost, "/definitions/validate", minimalDef)
	if got := resp.Header.Get("X-Cache"); got != "HIT" {
		t.Errorf("second X-Cache = %q", got)
	}
	if string(first) != string(second) {
		t.Errorf("cached body differs:\n%s\n%s", first, second)
	}

	// Rejected payloads are never cached.
	for range 2 {
		resp, _ = do(t, ts, http.MethodPost, "/definitions/validate", `{"version": 9}`)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d", resp.StatusCode)
		}
	}
	n, err := fc.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("cache held %d entries, want 1", n)
	}
}

func TestBodyTooLarge(t *testing.T) {
	h := New(catalog.MustBuiltin()).Handler()
	big := `{"pad": "` + strings.Repeat("x", MaxBodyBytes) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/definitions/validate", strings.NewReader(big)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCanvasConversions(t *testing.T) {
	ts := newTestServer(t)

	resp, data := do(t, ts, http.MethodPost, "/definitions/canvas?id=wf-1&name=Invoices&status=paused", minimalDef)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	canvas := decode[map[string]any](t, data)
	if canvas["id"] != "wf-1" || canvas["name"] != "Invoices" || canvas["status"] != "paused" {
		t.Errorf("canvas meta = %v %v %v", canvas["id"], canvas["name"], canvas["status"])
	}

	resp, back := do(t, ts, http.MethodPost, "/canvas/definition", string(data))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, back)
	}
	def := decode[map[string]any](t, back)
	if nodes, _ := def["nodes"].([]any); len(nodes) != 2 {
		t.Errorf("nodes = %v", def["nodes"])
	}

	resp, _ = do(t, ts, http.MethodPost, "/definitions/canvas?status=frozen", minimalDef)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad status query = %d", resp.StatusCode)
	}
}

func TestMigrateDefinition(t *testing.T) {
	ts := newTestServer(t)
	legacy := `{
	  "nodes": [
	    {"node_id": "s", "type": "start", "name": "Start", "config": {}},
	    {"node_id": "e", "node_type": "end", "name": "End", "config": {}}
	  ],
	  "edges": [{"source": "s", "target": "e", "condition_type": "on_success"}]
	}`
	resp, data := do(t, ts, http.MethodPost, "/definitions/migrate", legacy)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, data)
	}
	got := decode[struct {
		Version int `json:"version"`
		Nodes   []struct {
			TypeID string `json:"type_id"`
		} `json:"nodes"`
		Edges []struct {
			Condition string `json:"condition_type"`
		} `json:"edges"`
	}](t, data)
	if got.Version != 1 || got.Nodes[0].TypeID != "start" || got.Nodes[1].TypeID != "end" {
		t.Errorf("migrated = %+v", got)
	}
	if got.Edges[0].Condition != "on-success" {
		t.Errorf("condition = %q", got.Edges[0].Condition)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   ferrors.Code
	}{
		{"activate", `{"from": "draft", "to": "active", "definition": ` + minimalDef + `}`, http.StatusOK, ""},
		{"not activatable", `{"from": "draft", "to": "active", "definition": ` + startOnlyDef + `}`, http.StatusConflict, ferrors.ErrCodeNotActivatable},
		{"archive without graph", `{"from": "active", "to": "archived"}`, http.StatusOK, ""},
		{"out of archive", `{"from": "archived", "to": "draft"}`, http.StatusBadRequest, ferrors.ErrCodeInvalidTransition},
		{"activate without graph", `{"from": "paused", "to": "active"}`, http.StatusBadRequest, ferrors.ErrCodeInvalidInput},
		{"malformed", `[1, 2]`, http.StatusBadRequest, ferrors.ErrCodeInvalidInput},
	}
	ts := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := do(t, ts, http.MethodPost, "/workflows/transition", tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d: %s", resp.StatusCode, tt.status, data)
			}
			if tt.code == "" {
				return
			}
			got := decode[errorBody](t, data)
			if got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
			if tt.code == ferrors.ErrCodeNotActivatable && !got.Violations.Has(validate.RuleHasEnd, "") {
				t.Errorf("violations = %v", got.Violations)
			}
		})
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- New(catalog.MustBuiltin()).ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-errc; err != nil {
		t.Errorf("ListenAndServe = %v", err)
	}
}

func TestListTemplates(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/templates", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	got := decode[struct {
		Templates []flowio.Template `json:"templates"`
	}](t, body)
	if len(got.Templates) != 5 {
		t.Fatalf("got %d templates", len(got.Templates))
	}
	for _, tmpl := range got.Templates {
		if tmpl.Definition != nil {
			t.Errorf("%s: listing carries the definition", tmpl.ID)
		}
	}

	_, body = do(t, ts, http.MethodGet, "/templates?category=approval&search=legal", "")
	got = decode[struct {
		Templates []flowio.Template `json:"templates"`
	}](t, body)
	if len(got.Templates) != 1 || got.Templates[0].ID != "contract_review" {
		t.Errorf("filtered = %+v", got.Templates)
	}
}

func TestGetTemplate(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodGet, "/templates/customer_onboarding", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if tmpl := decode[flowio.Template](t, body); len(tmpl.Definition) == 0 || tmpl.Name != "Customer Onboarding Workflow" {
		t.Errorf("template = %+v", tmpl)
	}

	resp, body = do(t, ts, http.MethodGet, "/templates/payroll", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown template: status = %d", resp.StatusCode)
	}
	if e := decode[errorBody](t, body); e.Code != ferrors.ErrCodeNotFound {
		t.Errorf("code = %s", e.Code)
	}
}

func TestInstantiateTemplate(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts, http.MethodPost, "/templates/invoice_processing/instantiate", `{"id": "wf-9", "name": "Grace Hopper", "status": "active"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	c := decode[flowio.Canvas](t, body)
	if c.ID != "wf-9" || c.Name != "Invoice Processing Workflow - Grace Hopper" || c.Status != workflow.StatusDraft {
		t.Errorf("record = %q %q %q", c.ID, c.Name, c.Status)
	}
	if len(c.Nodes) != 6 || len(c.Edges) != 6 || c.Definition == nil {
		t.Errorf("canvas has %d nodes, %d edges", len(c.Nodes), len(c.Edges))
	}

	// No body: the draft is named after the template.
	_, body = do(t, ts, http.MethodPost, "/templates/expense_report/instantiate", "")
	if c := decode[flowio.Canvas](t, body); c.Name != "Expense Report Processing" {
		t.Errorf("name = %q", c.Name)
	}

	resp, _ = do(t, ts, http.MethodPost, "/templates/expense_report/instantiate", "{")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", resp.StatusCode)
	}
	resp, _ = do(t, ts, http.MethodPost, "/templates/payroll/instantiate", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown template: status = %d", resp.StatusCode)
	}
}

func TestInstantiateTemplateAgainstForeignCatalog(t *testing.T) {
	tmpl := flowio.Template{
		ID:         "teleport",
		Name:       "Teleport",
		Definition: json.RawMessage(`{"version": 1, "nodes": [{"node_id": "x", "type_id": "teleport", "name": "Beam", "config": {}}], "edges": []}`),
	}
	ts := newTestServer(t, WithTemplates([]flowio.Template{tmpl}))

	resp, body := do(t, ts, http.MethodPost, "/templates/teleport/instantiate", "")
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if e := decode[errorBody](t, body); len(e.Issues) != 1 || e.Issues[0].Code != ferrors.ErrCodeUnknownType {
		t.Errorf("issues = %+v", e.Issues)
	}
	if _, body = do(t, ts, http.MethodGet, "/templates", ""); strings.Contains(string(body), "invoice_processing") {
		t.Error("custom templates did not replace the builtin set")
	}
}
