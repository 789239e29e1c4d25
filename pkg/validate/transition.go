package validate

import (
	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/workflow"
)

// CheckTransition reports whether a workflow holding snap may move from one
// status to another.
//
// Transitions outside the status table fail with INVALID_TRANSITION. Moving
// into active additionally requires an activatable graph; otherwise the
// error has code NOT_ACTIVATABLE and wraps the [Violations]:
//
//	var vs validate.Violations
//	if errors.As(err, &vs) { ... }
func CheckTransition(from, to workflow.Status, snap *workflow.Snapshot, cat *catalog.Catalog) error {
	var err error
	if e := checkTransition(from, to, snap, cat); e != nil {
		err = e
	}
	observability.Validation().OnTransition(string(from), string(to), err)
	return err
}

func checkTransition(from, to workflow.Status, snap *workflow.Snapshot, cat *catalog.Catalog) *ferrors.Error {
	for _, s := range []workflow.Status{from, to} {
		if !s.Valid() {
			return ferrors.New(ferrors.ErrCodeInvalidTransition, "unknown status %q", s)
		}
	}
	if !workflow.CanTransition(from, to) {
		return ferrors.New(ferrors.ErrCodeInvalidTransition, "cannot move a %s workflow to %s", from, to)
	}
	if to != workflow.StatusActive {
		return nil
	}
	if vs := Validate(snap, cat); len(vs) > 0 {
		return ferrors.Wrap(ferrors.ErrCodeNotActivatable, vs, "workflow has %d activation violation(s)", len(vs))
	}
	return nil
}
