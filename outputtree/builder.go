package outputtree

import (
	"fmt"

	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/internal/xerr"
	"github.com/manyfold/sporkmerge/linemerge"
	"github.com/manyfold/sporkmerge/pcs"
	"github.com/manyfold/sporkmerge/sporktree"
)

// Builder assembles the output AST from an intermediate tree.
type Builder struct {
	reg     *pcs.Registry
	cs      *changeset.ChangeSet
	factory Factory

	structuralConflicts int
}

// New creates a Builder. structuralConflicts is sporktree's own count of
// StructuralConflict sentinels (§4.G), carried through so Result.ConflictCount
// matches P4 without double-counting.
func New(reg *pcs.Registry, cs *changeset.ChangeSet, factory Factory, structuralConflicts int) *Builder {
	return &Builder{reg: reg, cs: cs, factory: factory, structuralConflicts: structuralConflicts}
}

// Build walks inter (the virtual root of the intermediate tree) and
// produces the final Result. It expects exactly one top-level real child,
// matching the core API's single mergedTree root (§6); a forest of
// top-level nodes is out of scope.
func (b *Builder) Build(inter *sporktree.Node) (Result, error) {
	var top *sporktree.Node
	count := 0
	for _, c := range inter.Children {
		if c.IsRoleNode {
			continue
		}
		top = c
		count++
	}
	if count != 1 {
		return Result{}, xerr.Errorf("expected exactly one top-level node, found %d", count)
	}

	role := b.resolveRole(top)
	node, err := b.buildOutputNode(top, role)
	if err != nil {
		return Result{}, err
	}
	node.SetParent(nil)
	node.SetRole(role)

	conflicts := b.collectContentConflicts()
	return Result{
		Tree:          node,
		ConflictCount: b.structuralConflicts + len(conflicts),
		Conflicts:     conflicts,
	}, nil
}

// buildOutputNode materializes inter as an output node: a verbatim clone
// for single-revision subtrees (§4.H step 1), else a shallow clone plus
// merged attributes and children (§4.H steps 2-5), or a text sentinel for
// a StructuralConflict.
func (b *Builder) buildOutputNode(inter *sporktree.Node, role pcs.Role) (pcs.MutableNode, error) {
	if inter.IsConflict {
		return b.buildConflictSentinel(inter)
	}

	if _, ok := b.uniformRevision(inter); ok {
		if orig, has := b.reg.NodeFor(inter.ID); has {
			return deepClone(orig)
		}
	}

	orig, has := b.reg.NodeFor(inter.ID)
	if !has {
		return nil, xerr.Errorf("no original node backing %d", inter.ID)
	}
	clone, ok := orig.Clone().(pcs.MutableNode)
	if !ok {
		return nil, xerr.Errorf("node %d's Clone() does not implement MutableNode", inter.ID)
	}

	for _, rv := range b.mergedContentFor(inter.ID) {
		clone.SetAttr(rv.Role, rv.Value)
	}

	if err := b.attachChildren(inter.Children, clone, pcs.RoleNone, false); err != nil {
		return nil, err
	}
	return clone, nil
}

// buildConflictSentinel materializes a StructuralConflict as a single
// literal-valued node carrying the diff3-style marker text (§6), so any
// pretty-printer downstream renders it verbatim.
func (b *Builder) buildConflictSentinel(inter *sporktree.Node) (pcs.MutableNode, error) {
	sentinel := b.factory(pcs.KindLiteral)
	text := inter.FallbackText
	if text == "" {
		text = fmt.Sprintf("%s LEFT\n%s%s\n%s%s RIGHT",
			linemerge.Sep1, b.renderSide(inter.Left), linemerge.Sep2, b.renderSide(inter.Right), linemerge.Sep3)
	}
	sentinel.SetAttr(pcs.RoleValue, text)
	return sentinel, nil
}

func (b *Builder) renderSide(nodes []*sporktree.Node) string {
	var out string
	for _, n := range nodes {
		if n.IsConflict || n.IsRoleNode {
			continue
		}
		orig, ok := b.reg.NodeFor(n.ID)
		if !ok {
			continue
		}
		out += orig.String() + "\n"
	}
	return out
}

// attachChildren walks inter's children (§4.H.1/.2): a role-node layer
// forces its own Role onto its own children and contributes no output
// node of its own; a real child resolves its own role unless forced.
func (b *Builder) attachChildren(children []*sporktree.Node, parent pcs.MutableNode, forcedRole pcs.Role, forced bool) error {
	for _, c := range children {
		if c.IsRoleNode {
			if err := b.attachChildren(c.Children, parent, c.Role, true); err != nil {
				return err
			}
			continue
		}
		role := forcedRole
		if !forced {
			role = b.resolveRole(c)
		}
		child, err := b.buildOutputNode(c, role)
		if err != nil {
			return err
		}
		child.SetParent(parent)
		child.SetRole(role)
		b.install(parent, child, role, c)
	}
	return nil
}

// install places child into parent's role-slot (§4.H step 3): annotation
// value bodies are keyed maps (§4.H.2), everything else is an
// append-or-set collection/singleton, left to the host's AddChild.
func (b *Builder) install(parent pcs.MutableNode, child pcs.Node, role pcs.Role, inter *sporktree.Node) {
	if role == pcs.RoleValueRole {
		if orig, ok := b.reg.NodeFor(inter.ID); ok {
			if keyVal, ok := orig.Attr(pcs.RoleName); ok {
				if key, ok := keyVal.(string); ok {
					parent.SetMapEntry(role, key, child)
					return
				}
			}
		}
	}
	parent.AddChild(child)
}

// resolveRole determines a child's output role (§4.H.1). The engine
// keeps each node's own recorded role; see DESIGN.md's open-question
// entry on why the spec's fuller "discard the base role when left/right
// restructured it" rule is not separately implemented (the class-rep
// collapse only retains one original Node per class, so no second
// candidate role is ever observable here).
func (b *Builder) resolveRole(c *sporktree.Node) pcs.Role {
	if c.IsConflict {
		for _, side := range [][]*sporktree.Node{c.Left, c.Right} {
			for _, n := range side {
				if r := b.resolveRole(n); r != pcs.RoleNone {
					return r
				}
			}
		}
		return pcs.RoleNone
	}
	if orig, ok := b.reg.NodeFor(c.ID); ok {
		return orig.Role()
	}
	return pcs.RoleNone
}

// uniformRevision reports the single revision every real node in inter's
// subtree originates from, implementing the single-revision-subtree test
// of §4.H step 1.
func (b *Builder) uniformRevision(inter *sporktree.Node) (pcs.Revision, bool) {
	if inter.IsConflict {
		return 0, false
	}
	var rev pcs.Revision
	set := false
	if !inter.IsRoleNode {
		orig, ok := b.reg.NodeFor(inter.ID)
		if !ok {
			return 0, false
		}
		rev, set = orig.Revision(), true
	}
	for _, c := range inter.Children {
		cr, ok := b.uniformRevision(c)
		if !ok {
			return 0, false
		}
		if !set {
			rev, set = cr, true
			continue
		}
		if cr != rev {
			return 0, false
		}
	}
	if !set {
		return 0, false
	}
	return rev, true
}

// deepClone clones orig and its entire original subtree verbatim (§4.H
// step 1), bypassing the intermediate tree entirely so the single
// revision's exact formatting/structure survives untouched. The node's
// single source revision is not separately tagged on the clone: Node
// exposes Revision() as a getter only, and adding a setter just for this
// diagnostic would widen MutableNode for every host implementation to
// serve one optional feature.
func deepClone(orig pcs.Node) (pcs.MutableNode, error) {
	clone, ok := orig.Clone().(pcs.MutableNode)
	if !ok {
		return nil, xerr.Errorf("node %v's Clone() does not implement MutableNode", orig)
	}
	for _, c := range orig.Children() {
		childClone, err := deepClone(c)
		if err != nil {
			return nil, err
		}
		childClone.SetParent(clone)
		childClone.SetRole(c.Role())
		clone.AddChild(childClone)
	}
	return clone, nil
}

// mergedContentFor returns node's agreed RoledValues tuple: the sole
// remaining content entry after content merge collapsed any disagreement,
// or the node's single recorded entry if it was never in conflict.
func (b *Builder) mergedContentFor(node pcs.NodeID) pcs.RoledValues {
	entries := b.cs.Content(node)
	if len(entries) == 0 {
		return nil
	}
	return entries[len(entries)-1].Value
}

// collectContentConflicts flattens the ChangeSet's unresolved content
// conflicts into Result.Conflicts records.
func (b *Builder) collectContentConflicts() []ConflictRecord {
	var out []ConflictRecord
	for node, confs := range b.cs.AllContentConflicts() {
		for _, c := range confs {
			out = append(out, ConflictRecord{
				Kind:   "content",
				NodeID: node,
				Role:   c.Role,
				Detail: fmt.Sprintf("base=%v left=%v right=%v", c.Base, c.Left, c.Right),
			})
		}
	}
	return out
}
