package classrep

import "github.com/manyfold/sporkmerge/pcs"

// Build constructs the class-representative map for base/left/right given
// the three pairwise matchings (§4.C, steps 1-4). filters is applied to
// every candidate match before it is accepted; pass DefaultFilters() for
// spec.md's four built-in filters.
func Build(reg *pcs.Registry, base, left, right pcs.Node, baseLeft, baseRight, leftRight NodeMapping, filters []Filter) *Map {
	m := newMap(reg)

	if base != nil {
		wrapAll(reg, base)
	}

	// Step 2: left nodes matched to base map to that base node; else self.
	if left != nil {
		for _, l := range preorder(left) {
			lid := reg.Wrap(l)
			if baseID, ok := baseLeft.Src(lid); ok && passes(filters, reg, baseID, lid) {
				m.set(lid, baseID)
			}
		}
	}

	// Step 3: symmetric for right via baseRight.
	if right != nil {
		for _, r := range preorder(right) {
			rid := reg.Wrap(r)
			if baseID, ok := baseRight.Src(rid); ok && passes(filters, reg, baseID, rid) {
				m.set(rid, baseID)
			}
		}
	}

	// Step 4: augmentation, top-down over left.
	if left != nil && leftRight != nil {
		for _, l := range preorder(left) {
			lid := reg.Wrap(l)
			if !m.IsSelfMapped(lid) {
				continue
			}
			rid, ok := leftRight.Dst(lid)
			if !ok || !m.IsSelfMapped(rid) {
				continue
			}
			if !passes(filters, reg, lid, rid) {
				continue
			}
			lParent := parentID(reg, l)
			rNode, ok := reg.NodeFor(rid)
			if !ok {
				continue
			}
			rParent := parentID(reg, rNode)
			if m.Resolve(lParent) == m.Resolve(rParent) {
				m.set(rid, lid)
			}
		}
	}

	return m
}

func passes(filters []Filter, reg *pcs.Registry, a, b pcs.NodeID) bool {
	for _, f := range filters {
		if f(reg, a, b) {
			return false
		}
	}
	return true
}

func parentID(reg *pcs.Registry, n pcs.Node) pcs.NodeID {
	p := n.Parent()
	if p == nil {
		return reg.VirtualRoot()
	}
	return reg.Wrap(p)
}

// preorder returns root and all of its descendants, parent before child.
func preorder(root pcs.Node) []pcs.Node {
	var out []pcs.Node
	var visit func(n pcs.Node)
	visit = func(n pcs.Node) {
		out = append(out, n)
		for _, c := range n.Children() {
			visit(c)
		}
	}
	visit(root)
	return out
}

// wrapAll assigns NodeIDs to root and all its descendants without
// recording any other state; used so base nodes referenced only via a
// matching already have a stable NodeID.
func wrapAll(reg *pcs.Registry, root pcs.Node) {
	reg.Wrap(root)
	for _, c := range root.Children() {
		wrapAll(reg, c)
	}
}
