// Package classrep builds the class-representative map (§4.C): given three
// ASTs and pairwise node matchings, it identifies "the same node across
// revisions".
package classrep

import "github.com/manyfold/sporkmerge/pcs"

// NodeMapping is the bidirectional dictionary an external tree matcher
// produces between two trees (§4.C). The engine treats it as opaque beyond
// the filters in DefaultFilters.
type NodeMapping interface {
	// Dst returns the node src maps to in the destination tree, if any.
	Dst(src pcs.NodeID) (pcs.NodeID, bool)
	// Src returns the node dst maps from in the source tree, if any.
	Src(dst pcs.NodeID) (pcs.NodeID, bool)
}

// SimpleMapping is a concrete NodeMapping backed by two maps. Matchers
// (out of core scope) construct one of these, or any other NodeMapping
// implementation, and hand it to Build.
type SimpleMapping struct {
	fwd map[pcs.NodeID]pcs.NodeID
	bwd map[pcs.NodeID]pcs.NodeID
}

func NewSimpleMapping() *SimpleMapping {
	return &SimpleMapping{fwd: map[pcs.NodeID]pcs.NodeID{}, bwd: map[pcs.NodeID]pcs.NodeID{}}
}

func (m *SimpleMapping) Add(src, dst pcs.NodeID) {
	m.fwd[src] = dst
	m.bwd[dst] = src
}

func (m *SimpleMapping) Dst(src pcs.NodeID) (pcs.NodeID, bool) {
	d, ok := m.fwd[src]
	return d, ok
}

func (m *SimpleMapping) Src(dst pcs.NodeID) (pcs.NodeID, bool) {
	s, ok := m.bwd[dst]
	return s, ok
}

// excludedMapping wraps a NodeMapping and hides any entry touching a node
// in excluded, used by the bounded root-conflict retry (§4.E, §9): "drop
// those nodes from baseLeft/baseRight/leftRight" without needing every
// NodeMapping implementation to support deletion.
type excludedMapping struct {
	inner    NodeMapping
	excluded map[pcs.NodeID]bool
}

// Exclude returns a NodeMapping identical to m except that any mapping
// whose source or destination is in excluded is hidden.
func Exclude(m NodeMapping, excluded map[pcs.NodeID]bool) NodeMapping {
	if len(excluded) == 0 {
		return m
	}
	return &excludedMapping{inner: m, excluded: excluded}
}

func (e *excludedMapping) Dst(src pcs.NodeID) (pcs.NodeID, bool) {
	if e.excluded[src] {
		return 0, false
	}
	d, ok := e.inner.Dst(src)
	if ok && e.excluded[d] {
		return 0, false
	}
	return d, ok
}

func (e *excludedMapping) Src(dst pcs.NodeID) (pcs.NodeID, bool) {
	if e.excluded[dst] {
		return 0, false
	}
	s, ok := e.inner.Src(dst)
	if ok && e.excluded[s] {
		return 0, false
	}
	return s, ok
}
