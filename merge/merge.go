// Package merge is the public entry point tying the whole pipeline
// together (§6): node model -> PCS -> class-representative map ->
// ChangeSet -> raw merge (with content merge wired in) -> intermediate
// tree -> output tree.
package merge

import (
	"context"

	"github.com/manyfold/sporkmerge/changeset"
	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/contentmerge"
	"github.com/manyfold/sporkmerge/internal/xerr"
	"github.com/manyfold/sporkmerge/outputtree"
	"github.com/manyfold/sporkmerge/pcs"
	"github.com/manyfold/sporkmerge/rawmerge"
	"github.com/manyfold/sporkmerge/sporktree"
)

// Matcher is the external tree-matcher contract (§4.C, §6): an opaque
// function from two trees to a NodeMapping between them. It is handed
// the shared Registry so the NodeMapping it returns is keyed by the same
// NodeIDs the rest of the pipeline uses.
type Matcher func(reg *pcs.Registry, src, dst pcs.Node) (classrep.NodeMapping, error)

// Result is the engine's merge outcome.
type Result = outputtree.Result

// ConflictRecord is one conflict surfaced in Result.Conflicts.
type ConflictRecord = outputtree.ConflictRecord

// Options configures the optional, swappable parts of the pipeline.
// Factory is required: Merge returns an error when it is nil. A nil
// ConflictHandlers falls back to sporktree.DefaultHandlers(); a nil
// Filters applies no matcher filters. DefaultOptions builds the full
// default set around a given Factory.
type Options struct {
	Filters          []classrep.Filter
	ContentOptions   contentmerge.Options
	ConflictHandlers []sporktree.ConflictHandler
	Factory          outputtree.Factory
	CacheCapacity    int64
	Debug            bool
}

// DefaultOptions returns the engine's built-in defaults (§4.C, §4.F,
// §4.G): the four structural filters, the default content-merge options
// and per-role handlers, and the two structural conflict handlers.
func DefaultOptions(factory outputtree.Factory) Options {
	return Options{
		Filters:          classrep.DefaultFilters(),
		ContentOptions:   contentmerge.DefaultOptions(),
		ConflictHandlers: sporktree.DefaultHandlers(),
		Factory:          factory,
	}
}

// Merge runs the full three-way structural merge (§6):
//
//	merge(base, left, right, baseMatcher, leftRightMatcher) -> (mergedTree, conflictCount)
//
// baseMatcher is invoked for both base<->left and base<->right, per the
// external interface's suggested default pairing; leftRightMatcher is
// invoked once for left<->right.
func Merge(ctx context.Context, base, left, right pcs.Node, baseMatcher, leftRightMatcher Matcher, opts Options) (Result, error) {
	if opts.Factory == nil {
		return Result{}, xerr.Errorf("merge: Options.Factory is required")
	}

	reg := pcs.NewRegistry()
	tracker := xerr.NewTracker(opts.Debug)

	baseLeft, err := baseMatcher(reg, base, left)
	if err != nil {
		return Result{}, err
	}
	baseRight, err := baseMatcher(reg, base, right)
	if err != nil {
		return Result{}, err
	}
	leftRight, err := leftRightMatcher(reg, left, right)
	if err != nil {
		return Result{}, err
	}
	tracker.StepNext("matched base/left/right")

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	pcsBase := pcs.Build(reg, base, pcs.BASE)
	pcsLeft := pcs.Build(reg, left, pcs.LEFT)
	pcsRight := pcs.Build(reg, right, pcs.RIGHT)
	tracker.StepNext("built PCS triples")

	var cache *changeset.Cache
	if opts.CacheCapacity > 0 {
		cache, err = changeset.NewCache(opts.CacheCapacity)
		if err != nil {
			return Result{}, err
		}
	}

	engine := contentmerge.NewEngine(opts.ContentOptions)
	handlers := opts.ConflictHandlers
	if handlers == nil {
		handlers = sporktree.DefaultHandlers()
	}

	pass, structConflicts, err := runOnePass(reg, base, left, right, baseLeft, baseRight, leftRight,
		pcsBase, pcsLeft, pcsRight, opts.Filters, cache, engine, handlers)
	if err != nil {
		return Result{}, err
	}
	tracker.StepNext("raw merge + intermediate tree")

	out := outputtree.New(reg, pass.changeSet, opts.Factory, structConflicts)
	result, err := out.Build(pass.tree)
	if err != nil {
		return Result{}, err
	}
	tracker.StepNext("built output tree")

	if err := runPostMergePasses(ctx, reg, base, left, right, opts, &result); err != nil {
		return Result{}, err
	}
	tracker.StepNext("post-merge passes")
	return result, nil
}

// passResult bundles a raw-merge/intermediate-tree pass's outputs so a
// bounded retry (§4.E, §9 decision 2) can rerun runOnePass with excluded
// mappings and discard the first attempt cleanly.
type passResult struct {
	changeSet *changeset.ChangeSet
	tree      *sporktree.Node
}

// runOnePass builds the class-representative map, the two ChangeSets,
// runs raw merge, and on a root conflict rebuilds everything once more
// with the offending nodes excluded from the matchings (the bounded
// single retry spec.md §9 calls for), before building the intermediate
// tree.
func runOnePass(reg *pcs.Registry, base, left, right pcs.Node,
	baseLeft, baseRight, leftRight classrep.NodeMapping,
	pcsBase, pcsLeft, pcsRight *pcs.TripleSet,
	filters []classrep.Filter, cache *changeset.Cache, engine *contentmerge.Engine,
	handlers []sporktree.ConflictHandler) (passResult, int, error) {

	for attempt := 0; attempt < 2; attempt++ {
		cls := classrep.Build(reg, base, left, right, baseLeft, baseRight, leftRight, filters)
		t0 := changeset.Build(reg, cls, cache, pcsBase)
		delta := changeset.Build(reg, cls, cache, pcsBase, pcsLeft, pcsRight)

		res := rawmerge.Resolve(delta, t0, engine.Merge)
		if len(res.RootConflictNodes) > 0 {
			if attempt > 0 {
				break
			}
			baseLeft = classrep.Exclude(baseLeft, res.RootConflictNodes)
			baseRight = classrep.Exclude(baseRight, res.RootConflictNodes)
			leftRight = classrep.Exclude(leftRight, res.RootConflictNodes)
			continue
		}

		builder := sporktree.New(delta, handlers)
		tree, conflictCount, err := builder.Build()
		if err != nil {
			return passResult{}, 0, err
		}
		return passResult{changeSet: delta, tree: tree}, conflictCount, nil
	}
	return passResult{}, 0, xerr.Errorf("root conflict persisted after bounded retry")
}
