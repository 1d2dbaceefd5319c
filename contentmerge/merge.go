// Package contentmerge implements content merge (§4.F): resolving scalar
// attribute disagreements left over on a node after raw merge settles its
// structural position, using a per-role handler chain.
package contentmerge

import (
	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/pcs"
)

// Engine holds the handler chain and options content merge runs with. A
// zero Engine is usable and equivalent to NewEngine(DefaultOptions()).
type Engine struct {
	Options  Options
	Handlers map[pcs.Role]Handler
}

// NewEngine builds an Engine with the built-in handlers (§4.F).
func NewEngine(opts Options) *Engine {
	return &Engine{Options: opts, Handlers: DefaultHandlers()}
}

// Merge resolves every scalar role recorded against node in cs down to a
// single agreed RoledValues tuple, per the positional rule (§4.F step 4):
// agree -> take it; one side matches base -> take the other; otherwise
// dispatch to the role's handler, recording an unresolved conflict if none
// applies or the handler could not fully settle it.
//
// It has the rawmerge.ContentMerger signature and is wired as the
// ContentMerger callback by the top-level merge package.
func (e *Engine) Merge(cs *changeset.ChangeSet, node pcs.NodeID) {
	entries := cs.Content(node)
	if len(entries) <= 1 {
		return
	}

	var baseTuple, leftTuple, rightTuple pcs.RoledValues
	var baseEntry, leftEntry, rightEntry *changeset.ContentEntry
	hasBase, hasLeft, hasRight := false, false, false

	for i := range entries {
		entry := &entries[i]
		switch entry.Revision {
		case pcs.BASE:
			baseTuple, baseEntry, hasBase = entry.Value, entry, true
		case pcs.LEFT:
			leftTuple, leftEntry, hasLeft = entry.Value, entry, true
		case pcs.RIGHT:
			rightTuple, rightEntry, hasRight = entry.Value, entry, true
		}
	}

	// Only one side actually contributed content (e.g. the node is
	// untouched on the other side): no disagreement to resolve.
	if !hasLeft || !hasRight {
		return
	}

	roles := roleOrder(leftTuple, rightTuple, baseTuple)
	merged := make(pcs.RoledValues, 0, len(roles))
	conflicts := make([]changeset.ContentConflict, 0)

	for _, role := range roles {
		baseVal, _ := valueOf(baseTuple, role)
		leftVal, _ := valueOf(leftTuple, role)
		rightVal, _ := valueOf(rightTuple, role)

		switch {
		case valuesEqual(leftVal, rightVal):
			merged = append(merged, pcs.RoledValue{Role: role, Value: leftVal})
			continue
		case hasBase && valuesEqual(leftVal, baseVal):
			merged = append(merged, pcs.RoledValue{Role: role, Value: rightVal})
			continue
		case hasBase && valuesEqual(rightVal, baseVal):
			merged = append(merged, pcs.RoledValue{Role: role, Value: leftVal})
			continue
		}

		handler, ok := e.handlerFor(role)
		if !ok {
			merged = append(merged, pcs.RoledValue{Role: role, Value: leftVal})
			conflicts = append(conflicts, changeset.ContentConflict{
				Role: role, HasBase: hasBase, Base: baseVal, Left: leftVal, Right: rightVal,
			})
			continue
		}

		resolved, status := handler(HandlerContext{
			Role: role, HasBase: hasBase, Base: baseVal, Left: leftVal, Right: rightVal,
			BaseTuple: baseTuple, LeftTuple: leftTuple, RightTuple: rightTuple,
			Options: e.Options,
		})
		merged = append(merged, pcs.RoledValue{Role: role, Value: resolved})
		if status != Resolved {
			conflicts = append(conflicts, changeset.ContentConflict{
				Role: role, HasBase: hasBase, Base: baseVal, Left: leftVal, Right: rightVal,
			})
		}
	}

	ctxEntry := leftEntry
	if ctxEntry == nil {
		ctxEntry = rightEntry
	}
	if ctxEntry == nil {
		ctxEntry = baseEntry
	}
	cs.SetContent(node, []changeset.ContentEntry{{
		Context: ctxEntry.Context, Value: merged, Revision: ctxEntry.Revision,
	}})
	for _, c := range conflicts {
		cs.AddContentConflict(node, c)
	}
}

// handlerFor looks up a role's handler, falling back to the engine's
// zero-value Handlers map (DefaultHandlers) if none was set explicitly.
func (e *Engine) handlerFor(role pcs.Role) (Handler, bool) {
	if e.Handlers != nil {
		h, ok := e.Handlers[role]
		return h, ok
	}
	h, ok := DefaultHandlers()[role]
	return h, ok
}

func roleOrder(tuples ...pcs.RoledValues) []pcs.Role {
	var order []pcs.Role
	seen := make(map[pcs.Role]bool)
	for _, t := range tuples {
		for _, rv := range t {
			if !seen[rv.Role] {
				seen[rv.Role] = true
				order = append(order, rv.Role)
			}
		}
	}
	return order
}

func valuesEqual(a, b pcs.Value) bool {
	if am, ok := a.(pcs.ModifierSet); ok {
		bm, ok := b.(pcs.ModifierSet)
		return ok && am.Equal(bm)
	}
	return a == b
}
