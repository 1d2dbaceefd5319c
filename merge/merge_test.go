package merge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/internal/mocktree"
	"github.com/manyfold/sporkmerge/merge"
	"github.com/manyfold/sporkmerge/pcs"
)

// emptyMatcher always returns an empty mapping, used where a test wants
// two subtrees treated as wholly unrelated (no node in one corresponds to
// any node in the other).
func emptyMatcher(_ *pcs.Registry, _, _ pcs.Node) (classrep.NodeMapping, error) {
	return classrep.NewSimpleMapping(), nil
}

// TestMergeUnchangedSideIsStable exercises P2: if left equals base, the
// merge reduces to right with zero conflicts.
func TestMergeUnchangedSideIsStable(t *testing.T) {
	base := mocktree.New(pcs.KindOther, pcs.BASE)
	base.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.BASE).WithAttr(pcs.RoleValue, "a"))

	left := mocktree.New(pcs.KindOther, pcs.LEFT)
	left.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.LEFT).WithAttr(pcs.RoleValue, "a"))

	right := mocktree.New(pcs.KindOther, pcs.RIGHT)
	right.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "a"))
	right.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "b"))

	opts := merge.DefaultOptions(mocktree.Factory)
	result, err := merge.Merge(context.Background(), base, left, right, mocktree.Matcher, mocktree.Matcher, opts)
	require.NoError(t, err)
	require.Equal(t, 0, result.ConflictCount)

	out, ok := result.Tree.(*mocktree.Node)
	require.True(t, ok)
	kids := out.Children()
	require.Len(t, kids, 2)
	require.Equal(t, "a", kids[0].String())
	require.Equal(t, "b", kids[1].String())
}

// TestMergeDisjointEditsBothSidesClean exercises seed scenario 5: disjoint
// renames on each side of a single statement list merge without conflict.
func TestMergeDisjointEditsBothSidesClean(t *testing.T) {
	base := mocktree.New(pcs.KindOther, pcs.BASE)
	base.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.BASE).WithAttr(pcs.RoleValue, "a"))
	base.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.BASE).WithAttr(pcs.RoleValue, "b"))
	base.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.BASE).WithAttr(pcs.RoleValue, "c"))

	left := mocktree.New(pcs.KindOther, pcs.LEFT)
	left.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.LEFT).WithAttr(pcs.RoleValue, "a"))
	left.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.LEFT).WithAttr(pcs.RoleValue, "B"))
	left.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.LEFT).WithAttr(pcs.RoleValue, "c"))

	right := mocktree.New(pcs.KindOther, pcs.RIGHT)
	right.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "a"))
	right.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "b"))
	right.Add(pcs.RoleStatement, mocktree.New(pcs.KindLiteral, pcs.RIGHT).WithAttr(pcs.RoleValue, "C"))

	opts := merge.DefaultOptions(mocktree.Factory)
	result, err := merge.Merge(context.Background(), base, left, right, mocktree.Matcher, mocktree.Matcher, opts)
	require.NoError(t, err)
	require.Equal(t, 0, result.ConflictCount)

	out := result.Tree.(*mocktree.Node)
	kids := out.Children()
	require.Len(t, kids, 3)
	require.Equal(t, []string{"a", "B", "C"}, []string{kids[0].String(), kids[1].String(), kids[2].String()})
}

// TestMergeImportsAppliesSetUnionWithDeletions exercises §4.I/P5: an
// import deleted by either side drops out, additions from either side
// survive, and the final list is sorted lexicographically regardless of
// source order.
func TestMergeImportsAppliesSetUnionWithDeletions(t *testing.T) {
	imp := func(rev pcs.Revision, path string) *mocktree.Node {
		return mocktree.New(pcs.KindImportStatement, rev).WithAttr(pcs.RoleValue, path)
	}

	base := mocktree.New(pcs.KindCompilationUnit, pcs.BASE)
	base.Add(pcs.RoleImport, imp(pcs.BASE, "foo"))
	base.Add(pcs.RoleImport, imp(pcs.BASE, "bar"))

	left := mocktree.New(pcs.KindCompilationUnit, pcs.LEFT)
	left.Add(pcs.RoleImport, imp(pcs.LEFT, "foo"))

	right := mocktree.New(pcs.KindCompilationUnit, pcs.RIGHT)
	right.Add(pcs.RoleImport, imp(pcs.RIGHT, "foo"))
	right.Add(pcs.RoleImport, imp(pcs.RIGHT, "bar"))
	right.Add(pcs.RoleImport, imp(pcs.RIGHT, "qux"))

	opts := merge.DefaultOptions(mocktree.Factory)
	result, err := merge.Merge(context.Background(), base, left, right, mocktree.Matcher, mocktree.Matcher, opts)
	require.NoError(t, err)

	out := result.Tree.(*mocktree.Node)
	var paths []string
	for _, c := range out.Children() {
		if c.Role() == pcs.RoleImport {
			paths = append(paths, c.String())
		}
	}
	// "bar" is in base but left deleted it (base \ left), so it drops even
	// though right never touched it; "foo" survives unchanged; "qux" is a
	// clean right-only addition.
	require.Equal(t, []string{"foo", "qux"}, paths)
}

// TestMergeDeduplicatesIndependentlyAddedMembers exercises §4.I's
// duplicate-member elimination. base has one existing member "x"; left
// inserts a new "foo" before it and right inserts its own, differently
// bodied "foo" after it. The two insertions sit at different PCS anchors
// (Start-x vs x-End), so the main structural merge unions them cleanly as
// two distinct real children with no conflict of its own — it is only the
// §4.I post-merge pass, grouping by member key, that notices the
// same-named pair and recursively reconciles them down to one slot.
func TestMergeDeduplicatesIndependentlyAddedMembers(t *testing.T) {
	base := mocktree.New(pcs.KindType, pcs.BASE)
	baseX := mocktree.New(pcs.KindTypeMember, pcs.BASE).WithAttr(pcs.RoleName, "x")
	base.Add(pcs.RoleTypeMember, baseX)

	left := mocktree.New(pcs.KindType, pcs.LEFT)
	leftFoo := mocktree.New(pcs.KindTypeMember, pcs.LEFT).WithAttr(pcs.RoleName, "foo").WithAttr(pcs.RoleValue, "leftBody")
	leftX := mocktree.New(pcs.KindTypeMember, pcs.LEFT).WithAttr(pcs.RoleName, "x")
	left.Add(pcs.RoleTypeMember, leftFoo)
	left.Add(pcs.RoleTypeMember, leftX)

	right := mocktree.New(pcs.KindType, pcs.RIGHT)
	rightX := mocktree.New(pcs.KindTypeMember, pcs.RIGHT).WithAttr(pcs.RoleName, "x")
	rightFoo := mocktree.New(pcs.KindTypeMember, pcs.RIGHT).WithAttr(pcs.RoleName, "foo").WithAttr(pcs.RoleValue, "rightBody")
	right.Add(pcs.RoleTypeMember, rightX)
	right.Add(pcs.RoleTypeMember, rightFoo)

	opts := merge.DefaultOptions(mocktree.Factory)
	// mocktree.Matcher matches "x" to "x" on both sides by kind+name, the
	// way it would for any unchanged sibling; leftRight stays empty so the
	// two "foo" insertions are seen as unrelated to each other — each side
	// added its own "foo" independently.
	result, err := merge.Merge(context.Background(), base, left, right, mocktree.Matcher, emptyMatcher, opts)
	require.NoError(t, err)

	out := result.Tree.(*mocktree.Node)
	var members []pcs.Node
	for _, c := range out.Children() {
		if c.Role() == pcs.RoleTypeMember {
			members = append(members, c)
		}
	}
	require.Len(t, members, 2, "x stays matched as one member; the two independently added \"foo\"s collapse to one more")
}
