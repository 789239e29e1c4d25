package workflow

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/flowgraph/pkg/catalog"
	ferrors "github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// Store holds the authoritative state of one workflow graph.
//
// Every mutating method either succeeds, bumping [Store.Version] and
// notifying [Store.Watch] observers with the new snapshot, or returns a
// *errors.Error and leaves the graph exactly as it was. The only exception
// is [Store.MoveNode] with an unchanged position, which succeeds without a
// version bump.
//
// Selection is editor state kept beside the graph: selecting never bumps the
// version and is reported through [Store.WatchSelection].
//
// The zero value is not usable - use [NewStore] or [Open].
// A Store is not safe for concurrent use; snapshots are.
type Store struct {
	g       *graph
	version uint64
	sel     Selection
	snap    *Snapshot
	seq     map[catalog.Category]int

	watchers    watchers[*Snapshot]
	selWatchers watchers[Selection]

	newEdgeID func() string
}

// Option configures a Store or Builder.
type Option func(*options)

type options struct {
	newEdgeID func() string
}

// WithEdgeIDs replaces the edge identifier generator (random UUIDs by default).
func WithEdgeIDs(next func() string) Option {
	return func(o *options) {
		if next != nil {
			o.newEdgeID = next
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{newEdgeID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewStore creates an empty graph governed by cat.
func NewStore(cat *catalog.Catalog, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		g:         newGraph(cat),
		seq:       make(map[catalog.Category]int),
		newEdgeID: o.newEdgeID,
	}
}

// Open creates a store holding a copy of snap, starting at snap's version.
func Open(snap *Snapshot, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		g:         graphFromSnapshot(snap),
		version:   snap.version,
		snap:      snap,
		seq:       make(map[catalog.Category]int),
		newEdgeID: o.newEdgeID,
	}
}

// Catalog returns the catalog governing the graph.
func (s *Store) Catalog() *catalog.Catalog { return s.g.cat }

// Version returns the current graph version.
func (s *Store) Version() uint64 { return s.version }

// Snapshot returns an immutable view of the current graph. Snapshots are
// memoized per version, so repeated calls without edits return the same value.
func (s *Store) Snapshot() *Snapshot {
	if s.snap == nil {
		s.snap = newSnapshot(s.g, s.version)
	}
	return s.snap
}

// Watch registers fn to receive the snapshot after every successful mutation.
// The returned function unregisters it.
func (s *Store) Watch(fn func(*Snapshot)) (cancel func()) { return s.watchers.add(fn) }

// WatchSelection registers fn to receive every selection change.
func (s *Store) WatchSelection(fn func(Selection)) (cancel func()) { return s.selWatchers.add(fn) }

func (s *Store) commit(op string) {
	s.version++
	s.snap = nil
	observability.Editor().OnEdit(op, s.version)
	if s.watchers.len() > 0 {
		s.watchers.notify(s.Snapshot())
	}
}

func (s *Store) reject(op string, err *ferrors.Error) error {
	observability.Editor().OnEditRejected(op, err)
	return err
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode places a node of the given type and returns its id. The node gets
// the type's name, its default configuration and the default timeout, retry
// count and required flag.
func (s *Store) AddNode(typeID catalog.TypeID, pos Position) (string, error) {
	d, ok := s.g.cat.Get(typeID)
	if !ok {
		return "", s.reject("AddNode", ferrors.New(ferrors.ErrCodeUnknownType, "unknown node type %q", typeID))
	}
	if e := checkPosition(pos); e != nil {
		return "", s.reject("AddNode", e)
	}

	n := &Node{
		ID:             s.nextNodeID(d.Category),
		TypeID:         d.ID,
		Name:           d.Name,
		Position:       pos,
		Config:         d.DefaultConfig(),
		Required:       true,
		TimeoutSeconds: DefaultTimeoutSeconds,
		RetryCount:     DefaultRetryCount,
	}
	s.g.insertNode(n)
	s.commit("AddNode")
	return n.ID, nil
}

// nextNodeID returns the first free "<category>_<n>" id.
func (s *Store) nextNodeID(cat catalog.Category) string {
	for {
		s.seq[cat]++
		id := fmt.Sprintf("%s_%d", cat, s.seq[cat])
		if _, taken := s.g.nodes[id]; !taken {
			return id
		}
	}
}

// RemoveNode deletes a node together with every edge incident on it.
func (s *Store) RemoveNode(id string) error {
	if _, err := s.g.node(id); err != nil {
		return s.reject("RemoveNode", err)
	}
	removed := s.g.deleteNode(id)

	if nodeID, ok := s.sel.Node(); ok && nodeID == id {
		s.setSelection(Selection{})
	} else if edgeID, ok := s.sel.Edge(); ok && slices.Contains(removed, edgeID) {
		s.setSelection(Selection{})
	}
	s.commit("RemoveNode")
	return nil
}

// MoveNode sets a node's canvas position. Moving a node to where it already
// is succeeds without changing the version.
func (s *Store) MoveNode(id string, pos Position) error {
	n, err := s.lookupNode("MoveNode", id)
	if err != nil {
		return err
	}
	if e := checkPosition(pos); e != nil {
		return s.reject("MoveNode", e)
	}
	if n.Position == pos {
		return nil
	}
	n.Position = pos
	s.commit("MoveNode")
	return nil
}

// RenameNode sets a node's display name. Surrounding whitespace is dropped.
func (s *Store) RenameNode(id, name string) error {
	n, err := s.lookupNode("RenameNode", id)
	if err != nil {
		return err
	}
	if e := checkName(name); e != nil {
		return s.reject("RenameNode", e)
	}
	n.Name = trimName(name)
	s.commit("RenameNode")
	return nil
}

// SetNodeDescription sets a node's free-form description.
func (s *Store) SetNodeDescription(id, desc string) error {
	n, err := s.lookupNode("SetNodeDescription", id)
	if err != nil {
		return err
	}
	if e := checkDescription(desc); e != nil {
		return s.reject("SetNodeDescription", e)
	}
	n.Description = desc
	s.commit("SetNodeDescription")
	return nil
}

// SetNodeRequired sets whether the node must lie on a start-to-end path.
func (s *Store) SetNodeRequired(id string, required bool) error {
	n, err := s.lookupNode("SetNodeRequired", id)
	if err != nil {
		return err
	}
	n.Required = required
	s.commit("SetNodeRequired")
	return nil
}

// SetNodeTimeout sets a node's timeout in seconds (1 to 3600).
func (s *Store) SetNodeTimeout(id string, seconds int) error {
	n, err := s.lookupNode("SetNodeTimeout", id)
	if err != nil {
		return err
	}
	if e := checkTimeout(seconds); e != nil {
		return s.reject("SetNodeTimeout", e)
	}
	n.TimeoutSeconds = seconds
	s.commit("SetNodeTimeout")
	return nil
}

// SetNodeRetry sets a node's retry count (0 to 10).
func (s *Store) SetNodeRetry(id string, count int) error {
	n, err := s.lookupNode("SetNodeRetry", id)
	if err != nil {
		return err
	}
	if e := checkRetry(count); e != nil {
		return s.reject("SetNodeRetry", e)
	}
	n.RetryCount = count
	s.commit("SetNodeRetry")
	return nil
}

// SetNodeConfigField stores one configuration value. The field must be
// declared by the node's type and the value must satisfy its schema; the
// stored value is the schema's canonical form (see [catalog.Field]).
//
// A rejected value yields FIELD_CONSTRAINT with Field set to the field name
// and the schema's diagnostic as message, e.g. "must be ≤ 1".
func (s *Store) SetNodeConfigField(id, field string, value any) error {
	n, err := s.lookupNode("SetNodeConfigField", id)
	if err != nil {
		return err
	}
	v, e := normalizeField(s.g.descriptor(n), field, value)
	if e != nil {
		return s.reject("SetNodeConfigField", e)
	}
	n.Config[field] = v
	s.commit("SetNodeConfigField")
	return nil
}

// ClearNodeConfigField resets a field to its schema default, or removes the
// value when the schema declares none.
func (s *Store) ClearNodeConfigField(id, field string) error {
	n, err := s.lookupNode("ClearNodeConfigField", id)
	if err != nil {
		return err
	}
	f, ok := s.g.descriptor(n).Field(field)
	if !ok {
		return s.reject("ClearNodeConfigField", ferrors.NewField(ferrors.ErrCodeUnknownField, field,
			"%s does not declare field %q", s.g.descriptor(n).Name, field))
	}
	if def, ok := f.Default(); ok {
		n.Config[field] = def
	} else {
		delete(n.Config, field)
	}
	s.commit("ClearNodeConfigField")
	return nil
}

func (s *Store) lookupNode(op, id string) (*Node, error) {
	n, err := s.g.node(id)
	if err != nil {
		return nil, s.reject(op, err)
	}
	return n, nil
}

// =============================================================================
// Edges
// =============================================================================

// AddEdge connects source to target and returns the new edge's id.
//
// It fails with UNKNOWN_NODE, SELF_LOOP, INVALID_ENDPOINT (into a start node
// or out of an end node), INVALID_CONDITION (kind not permitted for the
// source's category), DUPLICATE_EDGE (same source, target and kind) or
// SECOND_OUTGOING (single-output source already connected).
func (s *Store) AddEdge(source, target string, kind ConditionKind, config map[string]any) (string, error) {
	e := &Edge{
		Source:          source,
		Target:          target,
		Condition:       kind,
		ConditionConfig: config,
	}
	if err := s.g.checkEdge(e, ""); err != nil {
		return "", s.reject("AddEdge", err)
	}
	e.ID = s.freshEdgeID()
	s.g.insertEdge(e)
	s.commit("AddEdge")
	return e.ID, nil
}

func (s *Store) freshEdgeID() string {
	for {
		id := s.newEdgeID()
		if _, taken := s.g.edges[id]; !taken && id != "" {
			return id
		}
	}
}

// RemoveEdge deletes an edge.
func (s *Store) RemoveEdge(id string) error {
	if _, err := s.lookupEdge("RemoveEdge", id); err != nil {
		return err
	}
	s.g.deleteEdge(id)
	if edgeID, ok := s.sel.Edge(); ok && edgeID == id {
		s.setSelection(Selection{})
	}
	s.commit("RemoveEdge")
	return nil
}

// SetEdgeLabel sets an edge's display label (at most 100 characters).
func (s *Store) SetEdgeLabel(id, label string) error {
	e, err := s.lookupEdge("SetEdgeLabel", id)
	if err != nil {
		return err
	}
	if ve := checkLabel(label); ve != nil {
		return s.reject("SetEdgeLabel", ve)
	}
	e.Label = label
	s.commit("SetEdgeLabel")
	return nil
}

// SetEdgeCondition changes an edge's condition kind and configuration,
// re-applying the checks of [Store.AddEdge].
func (s *Store) SetEdgeCondition(id string, kind ConditionKind, config map[string]any) error {
	e, err := s.lookupEdge("SetEdgeCondition", id)
	if err != nil {
		return err
	}
	next := *e
	next.Condition = kind
	next.ConditionConfig = config
	if ve := s.g.checkEdge(&next, id); ve != nil {
		return s.reject("SetEdgeCondition", ve)
	}

	old := e.key()
	*e = next
	s.g.rekeyEdge(e, old)
	s.commit("SetEdgeCondition")
	return nil
}

func (s *Store) lookupEdge(op, id string) (*Edge, error) {
	e, err := s.g.edge(id)
	if err != nil {
		return nil, s.reject(op, err)
	}
	return e, nil
}

// =============================================================================
// Selection
// =============================================================================

// Selection returns the current cursor.
func (s *Store) Selection() Selection { return s.sel }

// SelectNode points the cursor at a node.
func (s *Store) SelectNode(id string) error {
	if _, err := s.g.node(id); err != nil {
		return err
	}
	s.setSelection(Selection{Kind: SelectNode, ID: id})
	return nil
}

// SelectEdge points the cursor at an edge.
func (s *Store) SelectEdge(id string) error {
	if _, err := s.g.edge(id); err != nil {
		return err
	}
	s.setSelection(Selection{Kind: SelectEdge, ID: id})
	return nil
}

// ClearSelection empties the cursor.
func (s *Store) ClearSelection() { s.setSelection(Selection{}) }

func (s *Store) setSelection(sel Selection) {
	if sel == s.sel {
		return
	}
	s.sel = sel
	s.selWatchers.notify(sel)
}

// =============================================================================
// Watchers
// =============================================================================

type watchers[T any] struct {
	next int
	list []watcher[T]
}

type watcher[T any] struct {
	id int
	fn func(T)
}

func (w *watchers[T]) add(fn func(T)) func() {
	w.next++
	id := w.next
	w.list = append(w.list, watcher[T]{id: id, fn: fn})
	return func() {
		w.list = slices.DeleteFunc(w.list, func(x watcher[T]) bool { return x.id == id })
	}
}

func (w *watchers[T]) len() int { return len(w.list) }

func (w *watchers[T]) notify(v T) {
	for _, x := range slices.Clone(w.list) {
		x.fn(v)
	}
}
