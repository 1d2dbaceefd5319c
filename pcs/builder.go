package pcs

// Build walks root depth-first and emits the PCS triples encoding its
// shape, tagged with rev (§4.B). The virtual root is treated as the parent
// of the single top-level node.
func Build(reg *Registry, root Node, rev Revision) *TripleSet {
	set := NewTripleSet()
	if root == nil {
		// An absent revision (e.g. a deleted compilation unit) still
		// needs well-formed Start/End boundaries under the virtual root.
		emitChildList(reg, set, reg.VirtualRoot(), nil, rev)
		return set
	}
	emitChildList(reg, set, reg.VirtualRoot(), []Node{root}, rev)
	walk(reg, set, root, rev)
	return set
}

func walk(reg *Registry, set *TripleSet, n Node, rev Revision) {
	id := reg.Wrap(n)
	children := n.Children()

	if groups := RoleGroups(n); len(groups) > 0 {
		emitRoleLayer(reg, set, id, n, groups, rev)
	} else {
		emitChildList(reg, set, id, children, rev)
	}

	for _, c := range children {
		walk(reg, set, c, rev)
	}
}

// emitChildList encodes the ordered children list of parent as the usual
// Start/c1/c2/.../End chain (§3). The empty-list edge case still emits a
// single (parent, Start, End) triple so deletions that empty a list remain
// observable in the ChangeSet (§4.B).
func emitChildList(reg *Registry, set *TripleSet, parent NodeID, children []Node, rev Revision) {
	start := reg.Start(parent)
	end := reg.End(parent)
	if len(children) == 0 {
		set.Put(Triple{Root: parent, Pred: start, Succ: end, Revision: rev})
		return
	}
	prev := start
	for _, c := range children {
		cid := reg.Wrap(c)
		set.Put(Triple{Root: parent, Pred: prev, Succ: cid, Revision: rev})
		prev = cid
	}
	set.Put(Triple{Root: parent, Pred: prev, Succ: end, Revision: rev})
}

// emitRoleLayer encodes the role-node virtual intermediary layer for an
// exploded node (§3, §4.A, §4.B): parent's own child list becomes the
// ordered list of role nodes, and each role node in turn gets the usual
// child-list encoding over the real children occupying that role.
func emitRoleLayer(reg *Registry, set *TripleSet, parent NodeID, n Node, groups []Role, rev Revision) {
	start := reg.Start(parent)
	end := reg.End(parent)
	prev := start
	for _, role := range groups {
		rnode := reg.RoleNode(parent, role)
		set.Put(Triple{Root: parent, Pred: prev, Succ: rnode, Revision: rev})
		prev = rnode
	}
	set.Put(Triple{Root: parent, Pred: prev, Succ: end, Revision: rev})

	rg, ok := n.(RoleGrouper)
	if !ok {
		return
	}
	for _, role := range groups {
		rnode := reg.RoleNode(parent, role)
		emitChildList(reg, set, rnode, rg.ChildrenByRole(role), rev)
	}
}
