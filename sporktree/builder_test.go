package sporktree_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/internal/mocktree"
	"github.com/manyfold/sporkmerge/pcs"
	"github.com/manyfold/sporkmerge/rawmerge"
	"github.com/manyfold/sporkmerge/sporktree"
)

// buildDelta runs the pipeline stages that precede the intermediate tree
// (class-rep map, T0*, Delta, raw merge) exactly the way merge.Merge does,
// so these tests exercise sporktree.Builder against a realistically
// resolved ChangeSet rather than a hand-assembled one.
func buildDelta(t *testing.T, reg *pcs.Registry, base, left, right pcs.Node, baseLeft, baseRight, leftRight classrep.NodeMapping) *changeset.ChangeSet {
	t.Helper()
	cls := classrep.Build(reg, base, left, right, baseLeft, baseRight, leftRight, classrep.DefaultFilters())

	var baseSet *pcs.TripleSet
	if base != nil {
		baseSet = pcs.Build(reg, base, pcs.BASE)
	}
	t0 := changeset.Build(reg, cls, nil, baseSet)

	var leftSet, rightSet *pcs.TripleSet
	if left != nil {
		leftSet = pcs.Build(reg, left, pcs.LEFT)
	}
	if right != nil {
		rightSet = pcs.Build(reg, right, pcs.RIGHT)
	}
	delta := changeset.Build(reg, cls, nil, baseSet, leftSet, rightSet)
	rawmerge.Resolve(delta, t0, nil)
	return delta
}

func TestBuildUnchangedTreeProducesNoConflicts(t *testing.T) {
	reg := pcs.NewRegistry()

	base := mocktree.New(pcs.KindOther, pcs.BASE)
	baseA := mocktree.New(pcs.KindLiteral, pcs.BASE).WithAttr(pcs.RoleValue, "a")
	base.Add(pcs.RoleStatement, baseA)

	left := mocktree.New(pcs.KindOther, pcs.LEFT)
	leftA := mocktree.New(pcs.KindLiteral, pcs.LEFT).WithAttr(pcs.RoleValue, "a")
	left.Add(pcs.RoleStatement, leftA)

	right := mocktree.New(pcs.KindOther, pcs.RIGHT)
	rightA := mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "a")
	right.Add(pcs.RoleStatement, rightA)

	baseID, leftID, rightID := reg.Wrap(base), reg.Wrap(left), reg.Wrap(right)
	baseAID, leftAID, rightAID := reg.Wrap(baseA), reg.Wrap(leftA), reg.Wrap(rightA)

	baseLeft := classrep.NewSimpleMapping()
	baseLeft.Add(baseID, leftID)
	baseLeft.Add(baseAID, leftAID)
	baseRight := classrep.NewSimpleMapping()
	baseRight.Add(baseID, rightID)
	baseRight.Add(baseAID, rightAID)
	leftRight := classrep.NewSimpleMapping()

	delta := buildDelta(t, reg, base, left, right, baseLeft, baseRight, leftRight)

	b := sporktree.New(delta, sporktree.DefaultHandlers())
	root, conflicts, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 0, conflicts)
	require.Len(t, root.Children, 1, "one top-level compilation unit under the virtual root")

	unit := root.Children[0]
	require.False(t, unit.IsConflict)
	require.Len(t, unit.Children, 1, "the unit's single unchanged child")
	require.False(t, unit.Children[0].IsConflict)
}

func TestBuildInsertConflictBeforeSameAnchorProducesSentinel(t *testing.T) {
	reg := pcs.NewRegistry()

	base := mocktree.New(pcs.KindOther, pcs.BASE)

	left := mocktree.New(pcs.KindOther, pcs.LEFT)
	leftP := mocktree.New(pcs.KindLiteral, pcs.LEFT).WithAttr(pcs.RoleValue, "p")
	left.Add(pcs.RoleStatement, leftP)

	right := mocktree.New(pcs.KindOther, pcs.RIGHT)
	rightQ := mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "q")
	right.Add(pcs.RoleStatement, rightQ)

	baseID, leftID, rightID := reg.Wrap(base), reg.Wrap(left), reg.Wrap(right)

	baseLeft := classrep.NewSimpleMapping()
	baseLeft.Add(baseID, leftID)
	baseRight := classrep.NewSimpleMapping()
	baseRight.Add(baseID, rightID)
	leftRight := classrep.NewSimpleMapping()

	delta := buildDelta(t, reg, base, left, right, baseLeft, baseRight, leftRight)

	b := sporktree.New(delta, sporktree.DefaultHandlers())
	root, conflicts, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, 1, conflicts)
	require.Len(t, root.Children, 1, "one top-level compilation unit under the virtual root")

	unit := root.Children[0]
	require.False(t, unit.IsConflict, "the conflict is among the unit's children, not the unit itself")
	require.Len(t, unit.Children, 1)

	sentinel := unit.Children[0]
	require.True(t, sentinel.IsConflict)
	require.Len(t, sentinel.Left, 1)
	require.Len(t, sentinel.Right, 1)
}
