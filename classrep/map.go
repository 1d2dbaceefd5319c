package classrep

import "github.com/manyfold/sporkmerge/pcs"

// Map is the class-representative map (§3, §4.C): NodeID -> NodeID,
// satisfying I2 (a representative is a base node, or a self-mapped left/
// right node).
type Map struct {
	reg   *pcs.Registry
	table map[pcs.NodeID]pcs.NodeID
}

func newMap(reg *pcs.Registry) *Map {
	return &Map{reg: reg, table: make(map[pcs.NodeID]pcs.NodeID)}
}

// Resolve returns id's class representative. Markers (the virtual root,
// list edges, role nodes) are never looked up in the table: they are
// re-derived from their already-resolved parent (see Registry.Rederive and
// DESIGN.md's note on marker identity) — which is the sense in which
// spec.md's §4.C says they "are mapped to themselves": no external matching
// ever assigns them a different target.
func (m *Map) Resolve(id pcs.NodeID) pcs.NodeID {
	if id == m.reg.VirtualRoot() {
		return id
	}
	if _, isMarker := m.reg.Recipe(id); isMarker {
		parent, ok := m.reg.ParentOf(id)
		if !ok {
			return id
		}
		resolvedParent := m.Resolve(parent)
		return m.reg.Rederive(id, resolvedParent)
	}
	if target, ok := m.table[id]; ok {
		return target
	}
	return id
}

// IsSelfMapped reports whether id currently resolves to itself.
func (m *Map) IsSelfMapped(id pcs.NodeID) bool {
	_, ok := m.table[id]
	return !ok
}

func (m *Map) set(id, target pcs.NodeID) {
	m.table[id] = target
}
