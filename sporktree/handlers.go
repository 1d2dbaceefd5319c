package sporktree

import "github.com/manyfold/sporkmerge/pcs"

// ConflictHandler attempts to resolve a successor conflict given the
// node IDs visited along left's and right's divergent chains (§4.G).
// Returning ok=false defers to the next handler, or to a StructuralConflict
// sentinel if none apply.
type ConflictHandler func(b *Builder, leftIDs, rightIDs []pcs.NodeID) (merged []pcs.NodeID, ok bool)

// DefaultHandlers returns the two built-in handlers in registration
// order (§4.G): method-ordering, then optimistic insert-insert. Fields
// are deliberately not given an "unordered concatenate" handler beyond
// these two, so a conflict that isn't a pure method-reorder or an
// identical double-insert still surfaces as a StructuralConflict.
func DefaultHandlers() []ConflictHandler {
	return []ConflictHandler{
		methodOrderingHandler,
		optimisticInsertInsertHandler,
	}
}

// methodOrderingHandler concatenates left then right when both sides
// consist entirely of executable type members: methods/constructors are
// unordered, so two sets of additions never really conflict.
func methodOrderingHandler(b *Builder, leftIDs, rightIDs []pcs.NodeID) ([]pcs.NodeID, bool) {
	if len(leftIDs) == 0 || len(rightIDs) == 0 {
		return nil, false
	}
	if !allExecutable(b, leftIDs) || !allExecutable(b, rightIDs) {
		return nil, false
	}
	merged := make([]pcs.NodeID, 0, len(leftIDs)+len(rightIDs))
	merged = append(merged, leftIDs...)
	merged = append(merged, rightIDs...)
	return merged, true
}

func allExecutable(b *Builder, ids []pcs.NodeID) bool {
	for _, id := range ids {
		n, ok := b.cs.Registry().NodeFor(id)
		if !ok || n.Kind() != pcs.KindExecutable {
			return false
		}
	}
	return true
}

// optimisticInsertInsertHandler coalesces sibling insertions with
// identical serialized form: both sides independently added the same
// thing at the same anchor, so only one copy survives.
func optimisticInsertInsertHandler(b *Builder, leftIDs, rightIDs []pcs.NodeID) ([]pcs.NodeID, bool) {
	if len(leftIDs) != len(rightIDs) || len(leftIDs) == 0 {
		return nil, false
	}
	reg := b.cs.Registry()
	for i := range leftIDs {
		if reg.Fingerprint(leftIDs[i]) != reg.Fingerprint(rightIDs[i]) {
			return nil, false
		}
	}
	return leftIDs, true
}
