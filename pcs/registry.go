package pcs

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// NodeID is the engine-internal stand-in for node identity (§9: "assign a
// monotonic key on first wrap; store in a side map; never compare children
// for equality at the merge layer"). It is comparable and hashable, unlike
// the host Node values themselves.
type NodeID uint64

// markerKind distinguishes the synthetic, non-AST sentinel positions §3
// introduces: the virtual root, per-parent list-edge markers, and
// per-parent-per-role role nodes (and their own start/end markers).
type markerKind uint8

const (
	markerNone markerKind = iota
	markerVirtualRoot
	markerStart
	markerEnd
	markerRoleNode
	markerRoleStart
	markerRoleEnd
)

// markerRecipe records how a synthetic NodeID was derived, so that a
// class-representative map can re-derive the canonical marker for a
// resolved parent without an explicit table entry (see classrep.Map.Resolve
// and DESIGN.md's note on marker identity).
type markerRecipe struct {
	kind   markerKind
	parent NodeID
	role   Role
}

// Registry assigns and looks up NodeIDs for a single merge invocation. It is
// owned exclusively by that invocation (§5): no global mutable state, no
// locking.
type Registry struct {
	next NodeID

	byIdentity map[any]NodeID
	nodes      map[NodeID]Node

	virtualRoot NodeID

	markerIDs map[markerRecipe]NodeID
	recipes   map[NodeID]markerRecipe

	fingerprints map[NodeID]string
}

// NewRegistry creates an empty registry with its virtual root pre-allocated.
func NewRegistry() *Registry {
	r := &Registry{
		next:         1,
		byIdentity:   make(map[any]NodeID),
		nodes:        make(map[NodeID]Node),
		markerIDs:    make(map[markerRecipe]NodeID),
		recipes:      make(map[NodeID]markerRecipe),
		fingerprints: make(map[NodeID]string),
	}
	r.virtualRoot = r.alloc()
	r.recipes[r.virtualRoot] = markerRecipe{kind: markerVirtualRoot}
	return r
}

func (r *Registry) alloc() NodeID {
	id := r.next
	r.next++
	return id
}

// Wrap assigns (or returns the existing) NodeID for a real AST node,
// keyed by its Identity(). Wrapping the same physical node twice returns
// the same NodeID.
func (r *Registry) Wrap(n Node) NodeID {
	key := n.Identity()
	if id, ok := r.byIdentity[key]; ok {
		return id
	}
	id := r.alloc()
	r.byIdentity[key] = id
	r.nodes[id] = n
	return id
}

// NodeFor returns the real node behind id, if any (markers and the virtual
// root have none).
func (r *Registry) NodeFor(id NodeID) (Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// VirtualRoot returns the single sentinel that is the parent of every
// top-level real node, stable across revisions.
func (r *Registry) VirtualRoot() NodeID { return r.virtualRoot }

func (r *Registry) marker(recipe markerRecipe) NodeID {
	if id, ok := r.markerIDs[recipe]; ok {
		return id
	}
	id := r.alloc()
	r.markerIDs[recipe] = id
	r.recipes[id] = recipe
	return id
}

// Start returns the StartOfChildList marker for parent.
func (r *Registry) Start(parent NodeID) NodeID {
	return r.marker(markerRecipe{kind: markerStart, parent: parent})
}

// End returns the EndOfChildList marker for parent.
func (r *Registry) End(parent NodeID) NodeID {
	return r.marker(markerRecipe{kind: markerEnd, parent: parent})
}

// RoleNode returns the per-parent, per-role virtual intermediary node used
// by exploded node kinds (§3, §4.A).
func (r *Registry) RoleNode(parent NodeID, role Role) NodeID {
	return r.marker(markerRecipe{kind: markerRoleNode, parent: parent, role: role})
}

// RoleStart returns the start-of-list marker for the given role node.
func (r *Registry) RoleStart(parent NodeID, role Role) NodeID {
	return r.marker(markerRecipe{kind: markerRoleStart, parent: parent, role: role})
}

// RoleEnd returns the end-of-list marker for the given role node.
func (r *Registry) RoleEnd(parent NodeID, role Role) NodeID {
	return r.marker(markerRecipe{kind: markerRoleEnd, parent: parent, role: role})
}

// Recipe reports how id was synthesized, if it is a marker or the virtual
// root.
func (r *Registry) Recipe(id NodeID) (recipe markerRecipe, isMarker bool) {
	recipe, ok := r.recipes[id]
	return recipe, ok
}

// IsVirtual reports whether id is the virtual root, a list-edge marker, or
// a role node/its markers — i.e. not a real AST node.
func (r *Registry) IsVirtual(id NodeID) bool {
	_, ok := r.recipes[id]
	return ok
}

// IsRoleNode reports whether id is a per-parent, per-role virtual
// intermediary node (as opposed to a list-edge or virtual-root marker).
// Exported so packages outside pcs (sporktree, outputtree) can tell a
// role-node child apart from a real one without reaching into the
// unexported markerRecipe fields.
func (r *Registry) IsRoleNode(id NodeID) bool {
	recipe, ok := r.recipes[id]
	return ok && recipe.kind == markerRoleNode
}

// RoleOf returns the role a role-node marker groups, if id is one.
func (r *Registry) RoleOf(id NodeID) (Role, bool) {
	recipe, ok := r.recipes[id]
	if !ok || recipe.kind != markerRoleNode {
		return RoleNone, false
	}
	return recipe.role, true
}

// Rederive recomputes the canonical marker for id given that its parent
// resolves to resolvedParent. Used by classrep.Map.Resolve to implement
// "list edges and role nodes map to themselves": the marker "maps to
// itself" in the sense that it is always re-synthesized from its already
// resolved parent, never looked up in an external matching.
func (r *Registry) Rederive(id NodeID, resolvedParent NodeID) NodeID {
	recipe, ok := r.recipes[id]
	if !ok {
		return id
	}
	switch recipe.kind {
	case markerVirtualRoot:
		return id
	case markerStart:
		return r.Start(resolvedParent)
	case markerEnd:
		return r.End(resolvedParent)
	case markerRoleNode:
		return r.RoleNode(resolvedParent, recipe.role)
	case markerRoleStart:
		return r.RoleStart(resolvedParent, recipe.role)
	case markerRoleEnd:
		return r.RoleEnd(resolvedParent, recipe.role)
	default:
		return id
	}
}

// ParentOf reports the recipe's parent for a marker id, if any.
func (r *Registry) ParentOf(id NodeID) (NodeID, bool) {
	recipe, ok := r.recipes[id]
	if !ok || recipe.kind == markerVirtualRoot {
		return 0, false
	}
	return recipe.parent, true
}

// Fingerprint computes a stable content digest of the subtree rooted at id,
// memoized per id. It is a DOMAIN-STACK addition (SPEC_FULL "identity &
// hashing") used by the optimistic insert-insert handler and by
// mocktree.Matcher to compare subtrees for byte-identity without a full
// structural walk every time.
func (r *Registry) Fingerprint(id NodeID) string {
	if fp, ok := r.fingerprints[id]; ok {
		return fp
	}
	h := blake3.New()
	n, ok := r.nodes[id]
	if !ok {
		fmt.Fprintf(h, "marker:%d", id)
	} else {
		fmt.Fprintf(h, "%d:%s", n.Kind(), n.String())
		for _, c := range n.Children() {
			cid := r.Wrap(c)
			fmt.Fprint(h, r.Fingerprint(cid))
		}
	}
	sum := h.Sum(nil)
	fp := fmt.Sprintf("%x", sum)
	r.fingerprints[id] = fp
	return fp
}
