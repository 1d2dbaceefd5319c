// Package rawmerge implements the raw 3DM merge (§4.E): resolving
// inconsistencies between the three input revisions by eliminating triples
// already present in base, and recording the rest as structural conflicts.
package rawmerge

import (
	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/pcs"
)

// ConflictKind classifies an inconsistency between two PCS triples (§3).
type ConflictKind uint8

const (
	RootConflict ConflictKind = iota + 1
	PredecessorConflict
	SuccessorConflict
)

// ContentMerger merges the (possibly several) recorded content entries for
// node down to one, recording an unresolved conflict on the ChangeSet's
// side metadata if they cannot be reconciled (§4.F). rawmerge calls it
// whenever it finds more than one content entry for a triple's
// predecessor, per step 2 of the resolution rule (§4.E). Wired to
// contentmerge.Merge by the top-level orchestration package to avoid an
// import cycle between rawmerge and contentmerge.
type ContentMerger func(cs *changeset.ChangeSet, node pcs.NodeID)

// Result reports the nodes that participated in a root conflict during
// this pass, used by the caller to decide whether a bounded retry (§9,
// DESIGN.md decision 2) is warranted.
type Result struct {
	RootConflictNodes map[pcs.NodeID]bool
}

// Resolve runs one pass of the raw-merge resolution rule over delta,
// mutating it in place, using base (T0*) to decide which side of an
// inconsistency to drop (§4.E).
func Resolve(delta, base *changeset.ChangeSet, mergeContent ContentMerger) Result {
	result := Result{RootConflictNodes: make(map[pcs.NodeID]bool)}

	for _, p := range delta.Triples() {
		key := p.Key()
		if !delta.Contains(key) {
			continue // step 1: already removed as another triple's "other"
		}

		if entries := delta.Content(p.Pred); len(entries) > 1 && mergeContent != nil {
			mergeContent(delta, p.Pred)
		}

		q, kind, found := findConflict(delta, p)
		if !found {
			continue
		}

		if kind == RootConflict {
			result.RootConflictNodes[p.Pred] = true
			result.RootConflictNodes[p.Succ] = true
			result.RootConflictNodes[q.Pred] = true
			result.RootConflictNodes[q.Succ] = true
		}

		switch {
		case base.Contains(q.Key()):
			delta.Remove(q.Key())
		case base.Contains(key):
			delta.Remove(key)
		default:
			delta.AddStructuralConflict(p, q)
		}
	}

	return result
}

// findConflict looks up a triple in delta that is a root-, predecessor-,
// or successor-conflict with p, in that priority order (§4.E).
func findConflict(delta *changeset.ChangeSet, p pcs.Triple) (pcs.Triple, ConflictKind, bool) {
	bySucc := delta.BySuccessor(p.Succ)
	byPred := delta.ByPredecessor(p.Pred)

	for _, candidates := range [][]pcs.Triple{bySucc, byPred} {
		for _, q := range candidates {
			if q.Key() == p.Key() {
				continue
			}
			if q.Root != p.Root && (q.Pred == p.Pred || q.Succ == p.Succ) {
				return q, RootConflict, true
			}
		}
	}

	for _, q := range bySucc {
		if q.Key() == p.Key() {
			continue
		}
		if q.Root == p.Root && q.Pred != p.Pred && q.Succ == p.Succ {
			return q, PredecessorConflict, true
		}
	}

	for _, q := range byPred {
		if q.Key() == p.Key() {
			continue
		}
		if q.Root == p.Root && q.Succ != p.Succ && q.Pred == p.Pred {
			return q, SuccessorConflict, true
		}
	}

	return pcs.Triple{}, 0, false
}
