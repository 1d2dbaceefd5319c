// Package mocktree is a minimal, pointer-identity-based pcs.Node /
// pcs.MutableNode implementation used by tests and the demo CLI, plus a
// simple structural matcher. It stands in for a real parser's AST
// wrapper, the way the teacher's own tests build small in-memory fixtures
// rather than invoking a real parser.
package mocktree

import (
	"fmt"
	"strings"

	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/pcs"
)

// Node is a small, mutable tree node identified by its own pointer.
type Node struct {
	kind pcs.Kind
	Rev  pcs.Revision

	role     pcs.Role
	parent   *Node
	children []*Node
	attrs    map[pcs.Role]pcs.Value
	mapSlots map[pcs.Role]map[string]*Node
	groups   []pcs.Role
}

// New creates a detached node of kind/rev with no attributes or children.
func New(kind pcs.Kind, rev pcs.Revision) *Node {
	return &Node{kind: kind, Rev: rev, attrs: make(map[pcs.Role]pcs.Value)}
}

// Factory adapts New to outputtree.Factory, minting fresh nodes for
// StructuralConflict text sentinels and for the merge package's
// post-merge passes.
func Factory(kind pcs.Kind) pcs.MutableNode {
	return New(kind, pcs.BASE)
}

// Add appends child as one of n's ordered children, with role, returning
// n for chaining fixture construction.
func (n *Node) Add(role pcs.Role, child *Node) *Node {
	child.role = role
	child.parent = n
	n.children = append(n.children, child)
	return n
}

// WithAttr sets a scalar attribute and returns n for chaining.
func (n *Node) WithAttr(role pcs.Role, v pcs.Value) *Node {
	n.attrs[role] = v
	return n
}

// WithRoleGroups marks n as exploded over the given structural roles
// (§4.A), so the PCS builder interposes a role-node layer for it.
func (n *Node) WithRoleGroups(roles ...pcs.Role) *Node {
	n.groups = roles
	return n
}

// pcs.Node

func (n *Node) Identity() any          { return n }
func (n *Node) Revision() pcs.Revision { return n.Rev }
func (n *Node) Kind() pcs.Kind         { return n.kind }

func (n *Node) Parent() pcs.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Role() pcs.Role { return n.role }

func (n *Node) Children() []pcs.Node {
	out := make([]pcs.Node, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

func (n *Node) Attr(role pcs.Role) (pcs.Value, bool) {
	v, ok := n.attrs[role]
	return v, ok
}

func (n *Node) SetAttr(role pcs.Role, v pcs.Value) {
	if n.attrs == nil {
		n.attrs = make(map[pcs.Role]pcs.Value)
	}
	n.attrs[role] = v
}

func (n *Node) Clone() pcs.Node {
	clone := New(n.kind, n.Rev)
	for k, v := range n.attrs {
		clone.attrs[k] = v
	}
	clone.groups = n.groups
	return clone
}

func (n *Node) String() string {
	if v, ok := n.attrs[pcs.RoleValue]; ok {
		return fmt.Sprintf("%v", v)
	}
	if v, ok := n.attrs[pcs.RoleName]; ok {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%s#%p", kindName(n.kind), n)
}

func (n *Node) Position() (pcs.Position, bool) { return pcs.Position{}, false }

// pcs.MutableNode

func (n *Node) SetParent(p pcs.Node) {
	if p == nil {
		n.parent = nil
		return
	}
	n.parent = p.(*Node)
}

func (n *Node) SetRole(r pcs.Role) { n.role = r }

func (n *Node) AddChild(v pcs.Node) {
	n.children = append(n.children, v.(*Node))
}

func (n *Node) SetMapEntry(role pcs.Role, key string, v pcs.Node) {
	if n.mapSlots == nil {
		n.mapSlots = make(map[pcs.Role]map[string]*Node)
	}
	if n.mapSlots[role] == nil {
		n.mapSlots[role] = make(map[string]*Node)
	}
	child := v.(*Node)
	n.mapSlots[role][key] = child
	n.children = append(n.children, child)
}

func (n *Node) SetChildren(children []pcs.Node) {
	out := make([]*Node, len(children))
	for i, c := range children {
		child := c.(*Node)
		child.parent = n
		out[i] = child
	}
	n.children = out
}

// MapEntry returns the node stored under (role, key), if any — used by
// tests asserting on annotation-value merge results.
func (n *Node) MapEntry(role pcs.Role, key string) (*Node, bool) {
	m, ok := n.mapSlots[role]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// pcs.RoleGrouper

func (n *Node) RoleGroups() []pcs.Role { return n.groups }

func (n *Node) ChildrenByRole(role pcs.Role) []pcs.Node {
	var out []pcs.Node
	for _, c := range n.children {
		if c.role == role {
			out = append(out, c)
		}
	}
	return out
}

func kindName(k pcs.Kind) string {
	return fmt.Sprintf("Kind(%d)", k)
}

// Matcher is the exact-structural-then-fingerprint matcher §4.C's
// SUPPLEMENTED note describes: it walks two trees in lockstep the way the
// teacher's modules/merkletrie/doubleiter.go pairs cursors over two
// merkletries, matching same-kind siblings by descending Fingerprint
// equality first (an unchanged subtree matches whole, hash and all) and
// falling back to a same-kind/same-NAME/positional heuristic for siblings
// whose content actually differs.
func Matcher(reg *pcs.Registry, src, dst pcs.Node) (classrep.NodeMapping, error) {
	m := classrep.NewSimpleMapping()
	matchChildren(reg, m, src, dst)
	return m, nil
}

func matchChildren(reg *pcs.Registry, m *classrep.SimpleMapping, src, dst pcs.Node) {
	if src == nil || dst == nil {
		return
	}
	if src.Kind() == dst.Kind() {
		m.Add(reg.Wrap(src), reg.Wrap(dst))
	}
	sc, dc := src.Children(), dst.Children()
	used := make([]bool, len(dc))

	srcFP := make([]string, len(sc))
	for i, s := range sc {
		srcFP[i] = reg.Fingerprint(reg.Wrap(s))
	}
	dstFP := make([]string, len(dc))
	for i, d := range dc {
		dstFP[i] = reg.Fingerprint(reg.Wrap(d))
	}

	assign := func(i, j int) {
		used[j] = true
		matchChildren(reg, m, sc[i], dc[j])
	}

	claimed := make([]bool, len(sc))
	for i := range sc {
		for j := range dc {
			if used[j] || srcFP[i] != dstFP[j] {
				continue
			}
			claimed[i] = true
			assign(i, j)
			break
		}
	}

	for i, s := range sc {
		if claimed[i] {
			continue
		}
		bestIdx, bestScore := -1, -1
		for j, d := range dc {
			if used[j] || s.Kind() != d.Kind() {
				continue
			}
			if score := similarity(s, d); score > bestScore {
				bestScore, bestIdx = score, j
			}
		}
		if bestIdx >= 0 {
			assign(i, bestIdx)
		}
	}
}

// similarity is a crude same-name/same-text bonus used only to break ties
// among same-kind candidate siblings whose content differs.
func similarity(a, b pcs.Node) int {
	an, aok := a.Attr(pcs.RoleName)
	bn, bok := b.Attr(pcs.RoleName)
	if aok && bok && an == bn {
		return 2
	}
	if strings.EqualFold(a.String(), b.String()) {
		return 1
	}
	return 0
}
