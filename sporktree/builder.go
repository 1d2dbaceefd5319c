package sporktree

import (
	"fmt"

	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/internal/xerr"
	"github.com/manyfold/sporkmerge/linemerge"
	"github.com/manyfold/sporkmerge/pcs"
)

// maxWalkSteps bounds a single child-list walk, guarding against a cyclic
// or malformed ChangeSet turning into an infinite loop (should not occur
// given I1/I3, but the walk has no other termination proof).
const maxWalkSteps = 1 << 20

// Builder constructs the intermediate tree from a resolved ChangeSet.
type Builder struct {
	cs       *changeset.ChangeSet
	handlers []ConflictHandler

	used          map[pcs.NodeID]bool
	conflictCount int
}

// New creates a Builder over cs using handlers (pass DefaultHandlers()
// for the built-in method-ordering and optimistic insert-insert rules).
func New(cs *changeset.ChangeSet, handlers []ConflictHandler) *Builder {
	return &Builder{cs: cs, handlers: handlers, used: make(map[pcs.NodeID]bool)}
}

// Build walks from the virtual root and returns the intermediate tree
// plus the structural conflict count accumulated along the way.
func (b *Builder) Build() (*Node, int, error) {
	root := &Node{ID: b.cs.Registry().VirtualRoot()}
	kids, err := b.buildChildList(root.ID)
	if err != nil {
		return nil, 0, err
	}
	root.Children = kids
	return root, b.conflictCount, nil
}

// buildChildList walks parent's PCS chain from Start to End (§4.G),
// resolving each step to a child node or a conflict run.
func (b *Builder) buildChildList(parent pcs.NodeID) ([]*Node, error) {
	reg := b.cs.Registry()
	cursor := reg.Start(parent)
	end := reg.End(parent)

	var children []*Node
	for steps := 0; cursor != end; steps++ {
		if steps > maxWalkSteps {
			return nil, xerr.Errorf("child list walk under %d exceeded bound", parent)
		}

		cands := b.cs.ByPredecessor(cursor)
		if len(cands) == 0 {
			return nil, xerr.Errorf("dangling predecessor %d: no successor recorded", cursor)
		}

		if len(cands) == 1 {
			t := cands[0]
			if t.Succ != end {
				child, err := b.buildNode(t.Succ)
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
			cursor = t.Succ
			continue
		}

		run, resume, err := b.resolveSuccessorConflict(cursor, cands, end)
		if err != nil {
			return nil, err
		}
		children = append(children, run...)
		cursor = resume
	}
	return children, nil
}

// buildNode resolves id to an intermediate node: a role-node marker's own
// sub-list, or a real node's sub-list. A move conflict (id already used
// elsewhere) or any inconsistency while walking id's own children falls
// back to a per-node line-based merge (§4.G, §7) rather than failing the
// whole build.
func (b *Builder) buildNode(id pcs.NodeID) (*Node, error) {
	reg := b.cs.Registry()

	if role, isRoleNode := reg.RoleOf(id); isRoleNode {
		kids, err := b.buildChildList(id)
		if err != nil {
			return nil, err
		}
		return &Node{ID: id, IsRoleNode: true, Role: role, Children: kids}, nil
	}

	if b.used[id] {
		return b.fallbackNode(id), nil
	}
	b.used[id] = true

	kids, err := b.buildChildList(id)
	if err != nil {
		return b.fallbackNode(id), nil
	}
	return &Node{ID: id, Children: kids}, nil
}

// resolveSuccessorConflict handles a cursor with more than one recorded
// successor (§4.G): it classifies the run by revision, scans each side
// forward to where the chains reconverge, tries the registered handlers
// in order, and falls back to a StructuralConflict sentinel.
func (b *Builder) resolveSuccessorConflict(cursor pcs.NodeID, cands []pcs.Triple, end pcs.NodeID) ([]*Node, pcs.NodeID, error) {
	leftRev, rightRev := pcs.LEFT, pcs.RIGHT
	var leftCand, rightCand *pcs.Triple
	for i := range cands {
		switch cands[i].Revision {
		case leftRev:
			leftCand = &cands[i]
		case rightRev:
			rightCand = &cands[i]
		}
	}
	if leftCand == nil || rightCand == nil {
		// Both candidates tagged the same way (e.g. two BASE survivors):
		// not a real left/right disagreement; pick the first deterministically
		// and treat the rest as a conflict run of one node each so the
		// situation is still visible rather than silently dropped.
		leftCand, rightCand = &cands[0], &cands[1]
	}

	leftIDs, leftResume, err := b.scanSide(cursor, leftCand.Revision, end)
	if err != nil {
		return nil, 0, err
	}
	rightIDs, _, err := b.scanSide(cursor, rightCand.Revision, end)
	if err != nil {
		return nil, 0, err
	}

	for _, h := range b.handlers {
		if merged, ok := h(b, leftIDs, rightIDs); ok {
			nodes := make([]*Node, 0, len(merged))
			for _, id := range merged {
				n, err := b.buildNode(id)
				if err != nil {
					return nil, 0, err
				}
				nodes = append(nodes, n)
			}
			return nodes, leftResume, nil
		}
	}

	b.conflictCount++
	leftNodes, err := b.buildNodes(leftIDs)
	if err != nil {
		return nil, 0, err
	}
	rightNodes, err := b.buildNodes(rightIDs)
	if err != nil {
		return nil, 0, err
	}
	sentinel := &Node{IsConflict: true, Left: leftNodes, Right: rightNodes}

	resume := leftResume
	if len(leftIDs) == 0 {
		resume = b.rightResumeCursor(cursor, rightCand.Revision, end)
	}
	return []*Node{sentinel}, resume, nil
}

func (b *Builder) buildNodes(ids []pcs.NodeID) ([]*Node, error) {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		n, err := b.buildNode(id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// rightResumeCursor recomputes the right side's resume cursor on demand,
// for the rare case the left conflict list is empty ("an empty left list
// uses the last right node", §4.G).
func (b *Builder) rightResumeCursor(cursor pcs.NodeID, rev pcs.Revision, end pcs.NodeID) pcs.NodeID {
	_, resume, err := b.scanSide(cursor, rev, end)
	if err != nil {
		return cursor
	}
	return resume
}

// scanSide walks forward along one side's PCS chain from predecessor,
// following only triples tagged with side (or the sole remaining
// candidate), collecting successors until the chain reconverges: the
// point where the next step is no longer itself part of a recorded
// structural conflict (§4.G: "until a predecessor conflict is
// encountered"). It returns the visited node IDs and the predecessor at
// which normal walking should resume.
func (b *Builder) scanSide(predecessor pcs.NodeID, side pcs.Revision, end pcs.NodeID) (ids []pcs.NodeID, resume pcs.NodeID, err error) {
	cur := predecessor
	for steps := 0; ; steps++ {
		if cur == end {
			return ids, cur, nil
		}
		if steps > maxWalkSteps {
			return ids, cur, xerr.Errorf("conflict scan under %d exceeded bound", predecessor)
		}
		cands := b.cs.ByPredecessor(cur)
		if len(cands) == 0 {
			return ids, cur, xerr.Errorf("dangling predecessor %d during conflict scan", cur)
		}

		var chosen pcs.Triple
		found := false
		for _, c := range cands {
			if c.Revision == side {
				chosen, found = c, true
				break
			}
		}
		if !found {
			if len(cands) == 1 {
				chosen, found = cands[0], true
			} else {
				return ids, cur, nil
			}
		}

		if len(b.cs.StructuralConflicts(chosen.Key())) == 0 {
			return ids, cur, nil
		}
		if chosen.Succ == end {
			// the conflicted chain runs to the list boundary: nothing to
			// reconverge with, stop here instead of walking past End.
			return ids, end, nil
		}

		ids = append(ids, chosen.Succ)
		cur = chosen.Succ
	}
}

// fallbackNode wraps id as a textual StructuralConflict, per §4.G / §7's
// ConflictException/MoveConflict recovery: serialize whatever content is
// known for each revision and delegate to linemerge.
func (b *Builder) fallbackNode(id pcs.NodeID) *Node {
	b.conflictCount++
	base, left, right := b.serializeRevisions(id)
	merged, clean := linemerge.Merge(base, left, right)
	return &Node{ID: id, IsConflict: true, FallbackText: merged, FallbackClean: clean}
}

// serializeRevisions approximates "serialize all three [matches] to
// text" (§4.G) from the information the ChangeSet retained about id: its
// recorded per-revision content, and the original node's own short string
// form as a stand-in for any revision that recorded no scalar content.
func (b *Builder) serializeRevisions(id pcs.NodeID) (base, left, right string) {
	for _, e := range b.cs.Content(id) {
		s := fmt.Sprintf("%v", e.Value)
		switch e.Revision {
		case pcs.BASE:
			base = s
		case pcs.LEFT:
			left = s
		case pcs.RIGHT:
			right = s
		}
	}
	if n, ok := b.cs.Registry().NodeFor(id); ok {
		s := n.String()
		if left == "" {
			left = s
		}
		if right == "" {
			right = s
		}
	}
	return base, left, right
}
