// Package sporktree builds the intermediate tree (§4.G): it walks the
// resolved ChangeSet's PCS chains, installing structural conflict
// sentinels where left and right disagree and a node's own recorded
// structural conflicts cannot be reconciled by a registered handler.
package sporktree

import "github.com/manyfold/sporkmerge/pcs"

// Node is one position in the intermediate tree: either a resolved real
// node (or role-node marker) with its own rebuilt children, or a
// structural conflict sentinel carrying the two disagreeing sub-lists (or
// a textual fallback when even that could not be determined).
type Node struct {
	ID       pcs.NodeID
	IsRoleNode bool
	Role     pcs.Role // valid when IsRoleNode

	Children []*Node

	// IsConflict marks a StructuralConflict sentinel (§4.G). Exactly one
	// of {Left/Right, FallbackText} is populated.
	IsConflict bool
	Left       []*Node
	Right      []*Node

	FallbackText  string
	FallbackClean bool
}
