package contentmerge

import (
	"fmt"
	"sort"

	"github.com/manyfold/sporkmerge/linemerge"
	"github.com/manyfold/sporkmerge/pcs"
)

// HandlerStatus reports how much of a role disagreement a Handler
// resolved (§4.F step 4).
type HandlerStatus int

const (
	// Resolved means Merged is the agreed-upon value; no conflict remains.
	Resolved HandlerStatus = iota
	// PartialConflict means Merged is usable (e.g. text with inline
	// conflict markers, or a best-effort set union) but a disagreement
	// the handler could not fully settle should still be surfaced.
	PartialConflict
	// Unresolved means the handler could not produce a merged value at
	// all; the caller must record base/left/right verbatim as a conflict.
	Unresolved
)

// HandlerContext carries one role's three-way values plus, where a
// handler needs to reason about a sibling role on the same node (IS_UPPER
// depends on IS_IMPLICIT), the full per-revision tuples.
type HandlerContext struct {
	Role    pcs.Role
	HasBase bool
	Base    pcs.Value
	Left    pcs.Value
	Right   pcs.Value

	BaseTuple  pcs.RoledValues
	LeftTuple  pcs.RoledValues
	RightTuple pcs.RoledValues

	Options Options
}

// valueOf returns the value of role within tuple, if present.
func valueOf(tuple pcs.RoledValues, role pcs.Role) (pcs.Value, bool) {
	for _, rv := range tuple {
		if rv.Role == role {
			return rv.Value, true
		}
	}
	return nil, false
}

// Handler resolves a single role's base/left/right disagreement.
type Handler func(ctx HandlerContext) (merged pcs.Value, status HandlerStatus)

// DefaultHandlers returns the built-in per-role handlers named in §4.F:
// IS_IMPLICIT, MODIFIER, IS_UPPER, COMMENT_CONTENT, plus a NAME handler
// that embeds a conflict token. Roles with no handler fall back to
// reporting an unresolved conflict.
func DefaultHandlers() map[pcs.Role]Handler {
	return map[pcs.Role]Handler{
		pcs.RoleIsImplicit:     handleIsImplicit,
		pcs.RoleModifier:       handleModifier,
		pcs.RoleIsUpper:        handleIsUpper,
		pcs.RoleCommentContent: handleCommentContent,
		pcs.RoleName:           handleName,
	}
}

// handleName embeds a diff3-style conflict token as the NAME value itself
// (seed scenario 3) when both sides renamed the same node to different
// names: there is no line-based text to merge, just two irreconcilable
// atoms, so the token carries both verbatim rather than silently picking
// one side.
func handleName(ctx HandlerContext) (pcs.Value, HandlerStatus) {
	left, _ := ctx.Left.(string)
	right, _ := ctx.Right.(string)
	token := fmt.Sprintf("%s LEFT\n%s\n%s\n%s\n%s RIGHT", linemerge.Sep1, left, linemerge.Sep2, right, linemerge.Sep3)
	return token, PartialConflict
}

// handleIsImplicit prefers negating base's value when base is present (the
// only way left and right can both differ from an already-excluded-equal
// base and from each other is impossible for a bare bool, so this reduces
// to "default false/explicit" whenever base is absent) (§4.F).
func handleIsImplicit(ctx HandlerContext) (pcs.Value, HandlerStatus) {
	if ctx.HasBase {
		base, _ := ctx.Base.(bool)
		return !base, Resolved
	}
	return false, Resolved
}

var visibilityKeywords = []string{"public", "private", "protected"}

// handleModifier partitions modifiers into visibility and everything else
// (§4.F). Visibility: union base/left/right; if more than one candidate
// remains, drop any equal to base; a single survivor is clean, otherwise
// it is a conflict broken by Options.PreferredVisibility if set, else by
// keeping left's visibility. Non-visibility modifiers: kept if present in
// both left and right, or present in exactly one and absent from base
// (so a genuine deletion by one side, left untouched by the other, is
// honored rather than resurrected by the union).
func handleModifier(ctx HandlerContext) (pcs.Value, HandlerStatus) {
	left, _ := ctx.Left.(pcs.ModifierSet)
	right, _ := ctx.Right.(pcs.ModifierSet)
	base, hasBase := ctx.Base.(pcs.ModifierSet)

	merged := make(pcs.ModifierSet)
	status := Resolved

	visUnion := present(left.Union(right).Union(base), visibilityKeywords)
	switch len(visUnion) {
	case 0:
	case 1:
		merged[visUnion[0]] = true
	default:
		var survivors []string
		for _, v := range visUnion {
			if !hasBase || !base.Has(v) {
				survivors = append(survivors, v)
			}
		}
		switch len(survivors) {
		case 1:
			merged[survivors[0]] = true
		default:
			status = PartialConflict
			switch {
			case ctx.Options.PreferredVisibility != "" && left.Has(ctx.Options.PreferredVisibility):
				merged[ctx.Options.PreferredVisibility] = true
			case ctx.Options.PreferredVisibility != "" && right.Has(ctx.Options.PreferredVisibility):
				merged[ctx.Options.PreferredVisibility] = true
			default:
				pick := visUnion[0]
				for _, v := range visUnion {
					if left.Has(v) {
						pick = v
						break
					}
				}
				merged[pick] = true
			}
		}
	}

	for m := range left.Union(right) {
		if isVisibility(m) {
			continue
		}
		inBoth := left.Has(m) && right.Has(m)
		inOneOnlyNotBase := (left.Has(m) != right.Has(m)) && (!hasBase || !base.Has(m))
		if inBoth || inOneOnlyNotBase {
			merged[m] = true
		}
	}

	return merged, status
}

func isVisibility(m string) bool {
	for _, v := range visibilityKeywords {
		if m == v {
			return true
		}
	}
	return false
}

func present(set pcs.ModifierSet, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if set.Has(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// handleIsUpper depends on the sibling IS_IMPLICIT role on the same node
// (§4.F): if exactly one side has an implicit bound and the other an
// explicit one, the explicit side's IS_UPPER wins, since an implicit
// bound's upper/lower flag was never actually written down. Otherwise the
// disagreement is unresolved.
func handleIsUpper(ctx HandlerContext) (pcs.Value, HandlerStatus) {
	leftImplicit, lok := valueOf(ctx.LeftTuple, pcs.RoleIsImplicit)
	rightImplicit, rok := valueOf(ctx.RightTuple, pcs.RoleIsImplicit)
	if lok && rok {
		li, _ := leftImplicit.(bool)
		ri, _ := rightImplicit.(bool)
		if li && !ri {
			return ctx.Right, Resolved
		}
		if ri && !li {
			return ctx.Left, Resolved
		}
	}
	return ctx.Left, Unresolved
}

// handleCommentContent falls back to linemerge for the comment's text
// body, embedding diff3-style conflict markers when the two revisions
// touched overlapping lines (§4.F). Options.CommentMergeStyle == "skip"
// opts out of the line merge entirely and just reports the disagreement,
// for callers that would rather keep comment bodies out of the conflict
// markers their diff viewer renders.
func handleCommentContent(ctx HandlerContext) (pcs.Value, HandlerStatus) {
	base, _ := ctx.Base.(string)
	left, _ := ctx.Left.(string)
	right, _ := ctx.Right.(string)

	if ctx.Options.CommentMergeStyle == "skip" {
		return ctx.Left, Unresolved
	}

	merged, clean := linemerge.Merge(base, left, right)
	if clean {
		return merged, Resolved
	}
	return merged, PartialConflict
}
