package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/linemerge"
	"github.com/manyfold/sporkmerge/outputtree"
	"github.com/manyfold/sporkmerge/pcs"
)

// runPostMergePasses applies §4.I once the main output tree is assembled:
// metadata-element merges (imports, compilation-unit comment) and
// duplicate-member elimination. It mutates result.Tree in place, the way
// the teacher's own object-rewrite passes (modules/zeta/object) patch a
// tree after the primary walk rather than threading the repair into the
// walk itself.
func runPostMergePasses(ctx context.Context, reg *pcs.Registry, base, left, right pcs.Node, opts Options, result *Result) error {
	root, ok := result.Tree.(pcs.MutableNode)
	if !ok {
		return nil
	}

	if root.Kind() == pcs.KindCompilationUnit {
		mergeImports(opts.Factory, base, left, right, root)
		if commentConflict := mergeCUComment(opts.Factory, base, left, right, root); commentConflict {
			result.Conflicts = append(result.Conflicts, ConflictRecord{Kind: "content", NodeID: reg.Wrap(root), Role: pcs.RoleCommentContent, Detail: "compilation-unit comment did not merge cleanly"})
			result.ConflictCount++
		}
	}

	n, err := deduplicateMembers(ctx, reg, opts, root)
	if err != nil {
		return err
	}
	result.ConflictCount += n
	return nil
}

// importKey returns the textual identity of an import statement node, used
// to compare import sets across revisions (§4.I, P5) without requiring the
// host's import node to expose anything beyond the usual scalar attrs.
func importKey(n pcs.Node) string {
	if v, ok := n.Attr(pcs.RoleValue); ok {
		return fmt.Sprintf("%v", v)
	}
	if v, ok := n.Attr(pcs.RoleName); ok {
		return fmt.Sprintf("%v", v)
	}
	return n.String()
}

// importSet collects root's direct RoleImport children keyed by importKey.
// A nil root (the compilation unit did not exist in that revision) yields
// an empty set.
func importSet(root pcs.Node) map[string]pcs.Node {
	out := make(map[string]pcs.Node)
	if root == nil {
		return out
	}
	for _, c := range root.Children() {
		if c.Role() == pcs.RoleImport {
			out[importKey(c)] = c
		}
	}
	return out
}

// mergeImports implements P5: merged = (base ∪ left ∪ right) \ ((base \
// left) ∪ (base \ right)), sorted lexicographically. It replaces root's
// RoleImport children wholesale and leaves every other child untouched.
func mergeImports(factory outputtree.Factory, base, left, right pcs.Node, root pcs.MutableNode) {
	baseSet, leftSet, rightSet := importSet(base), importSet(left), importSet(right)
	if len(baseSet) == 0 && len(leftSet) == 0 && len(rightSet) == 0 {
		return
	}

	keep := make(map[string]bool)
	for k := range baseSet {
		keep[k] = true
	}
	for k := range leftSet {
		keep[k] = true
	}
	for k := range rightSet {
		keep[k] = true
	}

	finalKeys := make([]string, 0, len(keep))
	for k := range keep {
		if _, inBase := baseSet[k]; inBase {
			_, inLeft := leftSet[k]
			_, inRight := rightSet[k]
			if !inLeft || !inRight {
				continue // (base \ left) or (base \ right): deleted by at least one side
			}
		}
		finalKeys = append(finalKeys, k)
	}
	sort.Strings(finalKeys)

	var kept []pcs.Node
	for _, c := range root.Children() {
		if c.Role() != pcs.RoleImport {
			kept = append(kept, c)
		}
	}

	imports := make([]pcs.Node, 0, len(finalKeys))
	for _, k := range finalKeys {
		imp := factory(pcs.KindImportStatement)
		imp.SetAttr(pcs.RoleValue, k)
		imp.SetRole(pcs.RoleImport)
		imp.SetParent(root)
		imports = append(imports, imp)
	}
	root.SetChildren(append(imports, kept...))
}

// findComment returns root's direct KindComment child, if any.
func findComment(root pcs.Node) pcs.Node {
	if root == nil {
		return nil
	}
	for _, c := range root.Children() {
		if c.Kind() == pcs.KindComment {
			return c
		}
	}
	return nil
}

func commentText(c pcs.Node) string {
	if c == nil {
		return ""
	}
	if v, ok := c.Attr(pcs.RoleCommentContent); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// mergeCUComment merges the compilation unit's own comment by line-based
// three-way merge (§4.I), replacing root's existing KindComment child (if
// any) with the merged one. It reports whether the merge left unresolved
// conflict markers.
func mergeCUComment(factory outputtree.Factory, base, left, right pcs.Node, root pcs.MutableNode) bool {
	leftText, rightText := commentText(findComment(left)), commentText(findComment(right))
	if leftText == "" && rightText == "" {
		return false
	}
	if leftText == rightText {
		return false
	}
	baseText := commentText(findComment(base))

	merged, clean := linemerge.Merge(baseText, leftText, rightText)

	var kept []pcs.Node
	for _, c := range root.Children() {
		if c.Kind() != pcs.KindComment {
			kept = append(kept, c)
		}
	}
	comment := factory(pcs.KindComment)
	comment.SetAttr(pcs.RoleCommentContent, merged)
	comment.SetParent(root)
	root.SetChildren(append([]pcs.Node{comment}, kept...))
	return !clean
}

// memberKey identifies a type member for duplicate grouping (§4.I): method
// signature, field simple name, or nested-type qualified name all reduce to
// the member's own NAME attribute when present, else its kind-qualified
// string form.
func memberKey(n pcs.Node) string {
	if v, ok := n.Attr(pcs.RoleName); ok {
		return fmt.Sprintf("%d:%v", n.Kind(), v)
	}
	return fmt.Sprintf("%d:%s", n.Kind(), n.String())
}

// identityMatcher is the trivial NodeMapping used for the duplicate-member
// recursive merge's synthetic empty base: the dummy base has no nodes
// worth matching against, so both matcher slots return an empty mapping.
func identityMatcher(_ *pcs.Registry, _, _ pcs.Node) (classrep.NodeMapping, error) {
	return classrep.NewSimpleMapping(), nil
}

// mergeDuplicatePair recursively invokes the full pipeline (§4.I: "clone
// one to a dummy empty base, re-wrap under the virtual root, and invoke
// the full pipeline") to reconcile a pair of type members that collided
// under the same key. a plays the role of left, b of right; the synthetic
// base is a genuinely empty node of a's kind (not a content-copying
// Clone(), which would carry a's own attributes and make content merge
// spuriously resolve every disagreement in b's favor).
func mergeDuplicatePair(ctx context.Context, opts Options, a, b pcs.Node) (pcs.Node, int, error) {
	dummyBase := opts.Factory(a.Kind())
	result, err := Merge(ctx, dummyBase, a, b, identityMatcher, identityMatcher, opts)
	if err != nil {
		return nil, 0, err
	}
	return result.Tree, result.ConflictCount, nil
}

// deduplicateMembers walks node's RoleTypeMember children, groups them by
// memberKey, and recursively merges any group of exactly two (§4.I); a
// group of one is an ordinary unique member and needs no repair, and the
// spec only describes pairwise collisions. It then recurses into node's
// remaining children to catch nested types.
func deduplicateMembers(ctx context.Context, reg *pcs.Registry, opts Options, node pcs.MutableNode) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	conflicts := 0
	children := node.Children()

	order := make([]string, 0)
	groups := make(map[string][]pcs.Node)
	for _, c := range children {
		if c.Role() != pcs.RoleTypeMember {
			continue
		}
		k := memberKey(c)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], c)
	}

	replacement := make(map[pcs.Node]pcs.Node)
	drop := make(map[pcs.Node]bool)
	for _, k := range order {
		g := groups[k]
		if len(g) != 2 {
			continue
		}
		merged, n, err := mergeDuplicatePair(ctx, opts, g[0], g[1])
		if err != nil {
			return conflicts, err
		}
		conflicts += n
		replacement[g[0]] = merged
		drop[g[1]] = true
	}

	if len(replacement) > 0 || len(drop) > 0 {
		out := make([]pcs.Node, 0, len(children))
		for _, c := range children {
			if drop[c] {
				continue
			}
			if mv, ok := replacement[c]; ok {
				if mvMutable, ok := mv.(pcs.MutableNode); ok {
					mvMutable.SetParent(node)
					mvMutable.SetRole(pcs.RoleTypeMember)
				}
				out = append(out, mv)
				continue
			}
			out = append(out, c)
		}
		node.SetChildren(out)
		children = node.Children()
	}

	for _, c := range children {
		if mc, ok := c.(pcs.MutableNode); ok {
			n, err := deduplicateMembers(ctx, reg, opts, mc)
			if err != nil {
				return conflicts, err
			}
			conflicts += n
		}
	}
	return conflicts, nil
}
