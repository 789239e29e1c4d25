package io

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// Migration upgrades a generic payload by exactly one format version. It
// edits payload in place; [Migrate] hands it a private copy.
type Migration func(payload map[string]any, cat *catalog.Catalog) error

// migrations[v] upgrades a version v payload to v+1.
var migrations = []Migration{
	0: migrateLegacy,
}

// VersionOf returns the format version a payload declares. Payloads without
// a version are legacy payloads of version 0.
func VersionOf(payload map[string]any) (int, error) {
	raw, ok := payload["version"]
	if !ok || raw == nil {
		return 0, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return 0, ferrors.NewField(ferrors.ErrCodeInvalidPayload, "version", "version must be a number")
		}
		f = n
	default:
		return 0, ferrors.NewField(ferrors.ErrCodeInvalidPayload, "version", "version must be a number, got %T", raw)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, ferrors.NewField(ferrors.ErrCodeInvalidPayload, "version", "version must be a non-negative integer, got %v", raw)
	}
	return int(f), nil
}

// Migrate upgrades payload to [CurrentVersion] by applying each pending
// migration in order. The input is not modified. A payload newer than the
// current version fails with UNSUPPORTED_VERSION.
func Migrate(payload map[string]any, cat *catalog.Catalog) (map[string]any, error) {
	v, err := VersionOf(payload)
	if err != nil {
		return nil, err
	}
	if v > CurrentVersion {
		return nil, ferrors.NewField(ferrors.ErrCodeUnsupportedVersion, "version",
			"definition version %d is newer than supported version %d", v, CurrentVersion)
	}
	out, _ := catalog.CloneValue(payload).(map[string]any)
	for ; v < CurrentVersion; v++ {
		if err := migrations[v](out, cat); err != nil {
			return nil, err
		}
		out["version"] = v + 1
		observability.Serializer().OnMigrate(v, v+1)
	}
	return out, nil
}

// legacyConditions maps the underscore spellings of the first editor.
var legacyConditions = map[string]workflow.ConditionKind{
	"success":      workflow.ConditionOnSuccess,
	"on_success":   workflow.ConditionOnSuccess,
	"failure":      workflow.ConditionOnFailure,
	"on_failure":   workflow.ConditionOnFailure,
	"approval_yes": workflow.ConditionApprovalYes,
	"approval_no":  workflow.ConditionApprovalNo,
}

// migrateLegacy upgrades version 0 payloads, which referenced node types by
// category or by the backend's node_type key and spelled conditions with
// underscores.
func migrateLegacy(payload map[string]any, cat *catalog.Catalog) error {
	upgradeLegacy(payload, cat)
	return nil
}

// upgradeLegacy rewrites legacy spellings in place. It leaves current
// payloads unchanged, so it is also safe to run on editor payloads.
func upgradeLegacy(payload map[string]any, cat *catalog.Catalog) {
	for _, n := range objects(payload["nodes"]) {
		if _, ok := n["type_id"]; ok {
			continue
		}
		if t, ok := n["node_type"]; ok {
			n["type_id"] = t
			delete(n, "node_type")
			continue
		}
		if c, ok := n["type"].(string); ok {
			if d, ok := cat.FirstOfCategory(catalog.Category(c)); ok {
				n["type_id"] = string(d.ID)
			}
		}
	}
	for _, e := range objects(payload["edges"]) {
		if c, ok := e["condition_type"].(string); ok {
			if k, legacy := legacyConditions[c]; legacy {
				e["condition_type"] = string(k)
			}
		}
	}
}

// objects returns the object elements of a JSON array.
func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
