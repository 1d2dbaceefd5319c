package changeset_test

import (
	"testing"

	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/internal/mocktree"
	"github.com/manyfold/sporkmerge/pcs"
)

// identityMap returns a classrep.Map in which every node resolves to
// itself, built the same way classrep.Build would for a single tree with
// no matchings.
func identityMap(reg *pcs.Registry, root pcs.Node) *classrep.Map {
	empty := classrep.NewSimpleMapping()
	return classrep.Build(reg, root, nil, nil, empty, empty, empty, classrep.DefaultFilters())
}

func TestBuildInsertsTriplesAndIndexes(t *testing.T) {
	reg := pcs.NewRegistry()
	parent := mocktree.New(pcs.KindOther, pcs.BASE)
	child := mocktree.New(pcs.KindLiteral, pcs.BASE).WithAttr(pcs.RoleValue, "x")
	parent.Add(pcs.RoleStatement, child)

	set := pcs.Build(reg, parent, pcs.BASE)
	cls := identityMap(reg, parent)
	cs := changeset.Build(reg, cls, nil, set)

	parentID, childID := reg.Wrap(parent), reg.Wrap(child)
	start := reg.Start(parentID)

	fwd := cs.ByPredecessor(start)
	if len(fwd) != 1 || fwd[0].Succ != childID {
		t.Fatalf("ByPredecessor(Start) = %+v, want the single triple to child", fwd)
	}
	bwd := cs.BySuccessor(childID)
	if len(bwd) != 1 {
		t.Fatalf("BySuccessor(child) = %+v, want exactly one triple", bwd)
	}

	content := cs.Content(childID)
	if len(content) != 1 || content[0].Value[0].Value != "x" {
		t.Fatalf("Content(child) = %+v, want a single VALUE entry", content)
	}
}

func TestInsertPrefersBaseRevisionOnDuplicateKey(t *testing.T) {
	reg := pcs.NewRegistry()
	parent := mocktree.New(pcs.KindOther, pcs.BASE)
	child := mocktree.New(pcs.KindLiteral, pcs.BASE)
	parent.Add(pcs.RoleStatement, child)

	baseSet := pcs.Build(reg, parent, pcs.BASE)
	leftSet := pcs.Build(reg, parent, pcs.LEFT)

	cls := identityMap(reg, parent)
	// Insert the LEFT-tagged set first, then the BASE one; I4 says a
	// surviving base triple should win the tag even though it arrives second.
	cs := changeset.Build(reg, cls, nil, leftSet, baseSet)

	parentID := reg.Wrap(parent)
	start := reg.Start(parentID)
	childID := reg.Wrap(child)
	key := pcs.Triple{Root: parentID, Pred: start, Succ: childID}.Key()

	tr, ok := cs.Get(key)
	if !ok {
		t.Fatalf("expected triple to be present")
	}
	if tr.Revision != pcs.BASE {
		t.Fatalf("Get(key).Revision = %v, want BASE to win over a later-recorded LEFT tag", tr.Revision)
	}
}

func TestRemoveClearsIndexesAndPresence(t *testing.T) {
	reg := pcs.NewRegistry()
	parent := mocktree.New(pcs.KindOther, pcs.BASE)
	child := mocktree.New(pcs.KindLiteral, pcs.BASE)
	parent.Add(pcs.RoleStatement, child)

	set := pcs.Build(reg, parent, pcs.BASE)
	cls := identityMap(reg, parent)
	cs := changeset.Build(reg, cls, nil, set)

	parentID, childID := reg.Wrap(parent), reg.Wrap(child)
	start := reg.Start(parentID)
	key := pcs.Triple{Root: parentID, Pred: start, Succ: childID}.Key()

	cs.Remove(key)
	if cs.Contains(key) {
		t.Fatalf("Remove did not clear presence")
	}
	if len(cs.ByPredecessor(start)) != 0 {
		t.Fatalf("Remove did not clear the forward index")
	}
}

func TestStructuralAndContentConflictRecording(t *testing.T) {
	reg := pcs.NewRegistry()
	cs := changeset.New(reg, nil, nil)

	a := pcs.Triple{Root: 1, Pred: 2, Succ: 3, Revision: pcs.LEFT}
	b := pcs.Triple{Root: 1, Pred: 2, Succ: 4, Revision: pcs.RIGHT}
	cs.AddStructuralConflict(a, b)

	if got := cs.StructuralConflicts(a.Key()); len(got) != 1 || got[0] != b {
		t.Fatalf("StructuralConflicts(a) = %+v, want [b]", got)
	}
	if got := cs.StructuralConflicts(b.Key()); len(got) != 1 || got[0] != a {
		t.Fatalf("structural conflicts must be recorded symmetrically")
	}

	cs.AddContentConflict(5, changeset.ContentConflict{Role: pcs.RoleModifier, HasBase: true})
	all := cs.AllContentConflicts()
	if len(all[5]) != 1 {
		t.Fatalf("AllContentConflicts missing the recorded conflict on node 5")
	}
}
