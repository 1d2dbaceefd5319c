package rawmerge_test

import (
	"testing"

	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/pcs"
	"github.com/manyfold/sporkmerge/rawmerge"
)

func identityChangeSet(reg *pcs.Registry, sets ...*pcs.TripleSet) *changeset.ChangeSet {
	empty := classrep.NewSimpleMapping()
	cls := classrep.Build(reg, nil, nil, nil, empty, empty, empty, classrep.DefaultFilters())
	return changeset.Build(reg, cls, nil, sets...)
}

func tripleSet(triples ...pcs.Triple) *pcs.TripleSet {
	s := pcs.NewTripleSet()
	for _, t := range triples {
		s.Add(t)
	}
	return s
}

// containsTriple reports whether want appears anywhere in got. Resolve walks
// every triple in delta, so a pair of mutually-conflicting triples is
// recorded once from each side's perspective: present, not uniqueness, is
// the contract StructuralConflicts documents.
func containsTriple(got []pcs.Triple, want pcs.Triple) bool {
	for _, t := range got {
		if t == want {
			return true
		}
	}
	return false
}

func TestResolveRecordsStructuralConflictWhenNeitherSideIsInBase(t *testing.T) {
	reg := pcs.NewRegistry()
	p := pcs.Triple{Root: 1, Pred: 10, Succ: 20, Revision: pcs.LEFT}
	q := pcs.Triple{Root: 2, Pred: 15, Succ: 20, Revision: pcs.RIGHT}

	delta := identityChangeSet(reg, tripleSet(p, q))
	base := identityChangeSet(reg)

	rawmerge.Resolve(delta, base, nil)

	if !delta.Contains(p.Key()) || !delta.Contains(q.Key()) {
		t.Fatalf("neither triple is in base, both must survive as a recorded conflict")
	}
	conflicts := delta.StructuralConflicts(p.Key())
	if !containsTriple(conflicts, q) {
		t.Fatalf("StructuralConflicts(p) = %+v, want it to include q", conflicts)
	}
}

func TestResolveDropsTheNonBaseSideOfARootConflict(t *testing.T) {
	reg := pcs.NewRegistry()
	p := pcs.Triple{Root: 1, Pred: 10, Succ: 20, Revision: pcs.LEFT}
	q := pcs.Triple{Root: 2, Pred: 15, Succ: 20, Revision: pcs.RIGHT}

	delta := identityChangeSet(reg, tripleSet(p, q))
	base := identityChangeSet(reg, tripleSet(q))

	result := rawmerge.Resolve(delta, base, nil)

	if delta.Contains(q.Key()) {
		t.Fatalf("q is in base so it must be dropped, keeping p")
	}
	if !delta.Contains(p.Key()) {
		t.Fatalf("p should survive since q (the base-backed side) was dropped")
	}
	if !result.RootConflictNodes[p.Pred] || !result.RootConflictNodes[q.Pred] {
		t.Fatalf("a root conflict's four endpoints should all be recorded in RootConflictNodes, got %+v", result.RootConflictNodes)
	}
}

func TestResolveDetectsPredecessorConflict(t *testing.T) {
	reg := pcs.NewRegistry()
	// Two different children (20 and 21) both claim to directly precede
	// the same successor (30) under the same root: a predecessor conflict.
	p := pcs.Triple{Root: 1, Pred: 20, Succ: 30, Revision: pcs.LEFT}
	q := pcs.Triple{Root: 1, Pred: 21, Succ: 30, Revision: pcs.RIGHT}

	delta := identityChangeSet(reg, tripleSet(p, q))
	base := identityChangeSet(reg)

	rawmerge.Resolve(delta, base, nil)

	conflicts := delta.StructuralConflicts(p.Key())
	if !containsTriple(conflicts, q) {
		t.Fatalf("expected p and q to be recorded as a predecessor conflict, got %+v", conflicts)
	}
}

func TestResolveDetectsSuccessorConflict(t *testing.T) {
	reg := pcs.NewRegistry()
	// Two different successors (30 and 31) both claim to directly follow
	// the same predecessor (20) under the same root: a successor conflict.
	p := pcs.Triple{Root: 1, Pred: 20, Succ: 30, Revision: pcs.LEFT}
	q := pcs.Triple{Root: 1, Pred: 20, Succ: 31, Revision: pcs.RIGHT}

	delta := identityChangeSet(reg, tripleSet(p, q))
	base := identityChangeSet(reg)

	rawmerge.Resolve(delta, base, nil)

	conflicts := delta.StructuralConflicts(p.Key())
	if !containsTriple(conflicts, q) {
		t.Fatalf("expected p and q to be recorded as a successor conflict, got %+v", conflicts)
	}
}

func TestResolveInvokesContentMergerOnMultipleEntries(t *testing.T) {
	reg := pcs.NewRegistry()
	p := pcs.Triple{Root: 1, Pred: 10, Succ: 20, Revision: pcs.LEFT}

	delta := identityChangeSet(reg, tripleSet(p))
	delta.SetContent(10, []changeset.ContentEntry{
		{Revision: pcs.LEFT}, {Revision: pcs.RIGHT},
	})
	base := identityChangeSet(reg)

	var mergedNode pcs.NodeID
	calls := 0
	rawmerge.Resolve(delta, base, func(cs *changeset.ChangeSet, node pcs.NodeID) {
		calls++
		mergedNode = node
	})

	if calls != 1 {
		t.Fatalf("expected the content merger to be invoked exactly once, got %d calls", calls)
	}
	if mergedNode != 10 {
		t.Fatalf("content merger invoked for node %d, want 10", mergedNode)
	}
}

func TestResolveSkipsContentMergeWithASingleEntry(t *testing.T) {
	reg := pcs.NewRegistry()
	p := pcs.Triple{Root: 1, Pred: 10, Succ: 20, Revision: pcs.LEFT}

	delta := identityChangeSet(reg, tripleSet(p))
	base := identityChangeSet(reg)

	calls := 0
	rawmerge.Resolve(delta, base, func(cs *changeset.ChangeSet, node pcs.NodeID) {
		calls++
	})

	if calls != 0 {
		t.Fatalf("a node with zero or one content entry must not trigger the content merger")
	}
}
