package pcs

// Node is the capability interface the merge engine requires of a host
// language's AST node (§4.A). Implementations are expected to be thin
// wrappers over a real parser's node type.
type Node interface {
	// Identity returns a comparable value unique to this physical node
	// instance within its own input tree. Two nodes are the "same node"
	// iff their Identity() values compare equal with ==; the engine never
	// falls back to deep structural equality (§3).
	Identity() any

	Revision() Revision
	Kind() Kind

	// Parent returns the node's parent, or nil for a top-level node (whose
	// parent is the implicit virtual root).
	Parent() Node

	// Role is the structural role this node fills under its parent.
	Role() Role

	// Children returns the node's ordered, direct real children. It does
	// NOT include role-group virtual children; callers needing those use
	// RoleGroups/ChildrenByRole below.
	Children() []Node

	// Attr returns the scalar value of role on this node, if present.
	Attr(role Role) (Value, bool)

	// SetAttr installs a scalar value, used only while building the
	// output tree (§4.H).
	SetAttr(role Role, v Value)

	// Clone returns a shallow copy of the node (no children, no parent
	// link) suitable as the starting point for the output tree (§4.H).
	Clone() Node

	// String is a short, human-readable representation for diagnostics
	// and for fingerprinting (§SPEC_FULL "identity & hashing").
	String() string

	// Position optionally reports a source location.
	Position() (Position, bool)
}

// MutableNode is the additional capability required of nodes produced as
// OUTPUT TREE content (§4.H): attaching a freshly cloned node into its
// merged parent needs setters the read-only Node contract deliberately
// omits, since input trees are never mutated (§5). A host's concrete node
// type is expected to implement both Node and MutableNode; the engine
// simply never calls the mutators on a node still tagged as input.
type MutableNode interface {
	Node

	// SetParent and SetRole install the node's position once its
	// class-representative parent has been built and its output role
	// resolved (§4.H step 5: "record parent pointers immediately").
	SetParent(p Node)
	SetRole(r Role)

	// AddChild appends v as a child occupying an ordered/collection
	// role-slot under the receiver.
	AddChild(v Node)

	// SetMapEntry installs v under key in the role-keyed map-slot role
	// (§4.H.2: annotation value bodies keyed by name rather than
	// position).
	SetMapEntry(role Role, key string, v Node)

	// SetChildren replaces the receiver's full ordered child list,
	// re-parenting each entry. Used by the §4.I post-merge passes (import
	// set-union, duplicate-member elimination) to splice a recomputed
	// child list back in without a dedicated RemoveChild method.
	SetChildren(children []Node)
}

// RoleGrouper is implemented by nodes whose kind is exploded (§4.A): it
// reports the set of structural roles this node's children span, so the
// PCS builder can interpose a role-node virtual layer per role and avoid
// mixing, e.g., type parameters with value parameters into one child list.
type RoleGrouper interface {
	Node
	// RoleGroups returns the distinct non-ignored roles populated among
	// this node's children, in the order they should appear.
	RoleGroups() []Role
	// ChildrenByRole returns the ordered children that occupy role.
	ChildrenByRole(role Role) []Node
}

// RoleGroups returns n's role groups if it implements RoleGrouper and its
// kind is exploded, else nil.
func RoleGroups(n Node) []Role {
	if !IsExploded(n.Kind()) {
		return nil
	}
	if rg, ok := n.(RoleGrouper); ok {
		groups := make([]Role, 0, len(rg.RoleGroups()))
		for _, r := range rg.RoleGroups() {
			if !IsIgnoredExplodedRole(r) {
				groups = append(groups, r)
			}
		}
		return groups
	}
	return nil
}
