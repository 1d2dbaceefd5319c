// Package changeset implements the ChangeSet ("T*", §3, §4.D): the
// class-representative-rewritten union of PCS triples, with forward/
// backward adjacency indexes and per-node content sets.
package changeset

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/manyfold/sporkmerge/classrep"
	"github.com/manyfold/sporkmerge/pcs"
)

// ContentEntry is one (context, value) pair recorded against a node's
// predecessor position (§3): multiple entries for the same node arise
// exactly when left/right disagree on its scalar attributes.
type ContentEntry struct {
	Context  pcs.Triple
	Value    pcs.RoledValues
	Revision pcs.Revision
}

// ChangeSet is the T* structure (§3).
type ChangeSet struct {
	reg *pcs.Registry
	cls *classrep.Map

	triples map[pcs.Key]pcs.Triple
	order   []pcs.Key

	forward  map[pcs.NodeID]*hashset.Set // predecessor -> set of Key
	backward map[pcs.NodeID]*hashset.Set // successor -> set of Key

	content map[pcs.NodeID][]ContentEntry

	// structuralConflicts records, for each triple (by Key), the set of
	// triples it was found inconsistent with during raw merge (§3, §4.E).
	// It lives on the ChangeSet because rawmerge mutates this same
	// instance in place as it resolves Δ.
	structuralConflicts map[pcs.Key][]pcs.Triple

	// contentConflicts records unresolved per-role disagreements left
	// after content merge (§4.F), keyed by node.
	contentConflicts map[pcs.NodeID][]ContentConflict

	cache *Cache
}

// ContentConflict is an unresolved scalar-attribute disagreement on a
// node, recorded once content merge's per-role handler (§4.F) could not
// reconcile left and right.
type ContentConflict struct {
	Role              pcs.Role
	HasBase           bool
	Base, Left, Right pcs.Value
}

// New creates an empty ChangeSet over reg/cls, optionally backed by cache
// (nil disables memoized index lookups).
func New(reg *pcs.Registry, cls *classrep.Map, cache *Cache) *ChangeSet {
	return &ChangeSet{
		reg:                 reg,
		cls:                 cls,
		triples:             make(map[pcs.Key]pcs.Triple),
		forward:             make(map[pcs.NodeID]*hashset.Set),
		backward:            make(map[pcs.NodeID]*hashset.Set),
		content:             make(map[pcs.NodeID][]ContentEntry),
		structuralConflicts: make(map[pcs.Key][]pcs.Triple),
		contentConflicts:    make(map[pcs.NodeID][]ContentConflict),
		cache:               cache,
	}
}

// Build rewrites every triple in each of sets by cls and inserts the
// result into a fresh ChangeSet (§4.D). Pass a single base-only TripleSet
// to build T0*, or base+left+right together to build Δ.
func Build(reg *pcs.Registry, cls *classrep.Map, cache *Cache, sets ...*pcs.TripleSet) *ChangeSet {
	cs := New(reg, cls, cache)
	for _, set := range sets {
		if set == nil {
			continue
		}
		for _, t := range set.Slice() {
			cs.insert(t)
		}
	}
	return cs
}

func (cs *ChangeSet) insert(t pcs.Triple) {
	rt := pcs.Triple{
		Root:     cs.cls.Resolve(t.Root),
		Pred:     cs.cls.Resolve(t.Pred),
		Succ:     cs.cls.Resolve(t.Succ),
		Revision: t.Revision,
	}
	key := rt.Key()
	if existing, ok := cs.triples[key]; ok {
		// I4: triples that originated from base and survived keep the
		// BASE tag. If we already recorded a non-base triple and now see
		// its base counterpart, prefer base.
		if existing.Revision != pcs.BASE && rt.Revision == pcs.BASE {
			cs.triples[key] = rt
		}
	} else {
		cs.triples[key] = rt
		cs.order = append(cs.order, key)
		cs.index(key, rt)
	}

	if origPred, ok := cs.reg.NodeFor(t.Pred); ok {
		values := pcs.ExtractRoledValues(origPred)
		cs.content[rt.Pred] = append(cs.content[rt.Pred], ContentEntry{
			Context: rt, Value: values, Revision: t.Revision,
		})
	}
}

func (cs *ChangeSet) index(key pcs.Key, t pcs.Triple) {
	if cs.forward[t.Pred] == nil {
		cs.forward[t.Pred] = hashset.New()
	}
	cs.forward[t.Pred].Add(key)
	if cs.backward[t.Succ] == nil {
		cs.backward[t.Succ] = hashset.New()
	}
	cs.backward[t.Succ].Add(key)
	cs.invalidateCache(t.Pred, t.Succ)
}

func (cs *ChangeSet) deindex(key pcs.Key, t pcs.Triple) {
	if s := cs.forward[t.Pred]; s != nil {
		s.Remove(key)
	}
	if s := cs.backward[t.Succ]; s != nil {
		s.Remove(key)
	}
	cs.invalidateCache(t.Pred, t.Succ)
}

// Triples returns the current triple set (incidental order).
func (cs *ChangeSet) Triples() []pcs.Triple {
	out := make([]pcs.Triple, 0, len(cs.order))
	for _, k := range cs.order {
		if t, ok := cs.triples[k]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Get returns the triple with key, if still present.
func (cs *ChangeSet) Get(key pcs.Key) (pcs.Triple, bool) {
	t, ok := cs.triples[key]
	return t, ok
}

// Contains reports whether a triple with key is present.
func (cs *ChangeSet) Contains(key pcs.Key) bool {
	_, ok := cs.triples[key]
	return ok
}

// Remove deletes the triple with key, maintaining indexes.
func (cs *ChangeSet) Remove(key pcs.Key) {
	t, ok := cs.triples[key]
	if !ok {
		return
	}
	delete(cs.triples, key)
	cs.deindex(key, t)
}

// ByPredecessor returns every remaining triple whose predecessor is pred.
func (cs *ChangeSet) ByPredecessor(pred pcs.NodeID) []pcs.Triple {
	if cs.cache != nil {
		if v, ok := cs.cache.getFwd(pred); ok {
			return v
		}
	}
	out := cs.lookup(cs.forward[pred])
	if cs.cache != nil {
		cs.cache.putFwd(pred, out)
	}
	return out
}

// BySuccessor returns every remaining triple whose successor is succ.
func (cs *ChangeSet) BySuccessor(succ pcs.NodeID) []pcs.Triple {
	if cs.cache != nil {
		if v, ok := cs.cache.getBwd(succ); ok {
			return v
		}
	}
	out := cs.lookup(cs.backward[succ])
	if cs.cache != nil {
		cs.cache.putBwd(succ, out)
	}
	return out
}

func (cs *ChangeSet) lookup(set *hashset.Set) []pcs.Triple {
	if set == nil {
		return nil
	}
	out := make([]pcs.Triple, 0, set.Size())
	for _, v := range set.Values() {
		key := v.(pcs.Key)
		if t, ok := cs.triples[key]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (cs *ChangeSet) invalidateCache(ids ...pcs.NodeID) {
	if cs.cache == nil {
		return
	}
	for _, id := range ids {
		cs.cache.invalidate(id)
	}
}

// Content returns the content entries recorded for node (§3).
func (cs *ChangeSet) Content(node pcs.NodeID) []ContentEntry {
	return cs.content[node]
}

// SetContent overwrites the content entries recorded for node; used by
// contentmerge once a conflict has been resolved, so later passes see the
// merged value instead of the raw disagreement.
func (cs *ChangeSet) SetContent(node pcs.NodeID, entries []ContentEntry) {
	cs.content[node] = entries
}

// StructuralConflicts returns the triples key is recorded as inconsistent
// with (§3, §4.E).
func (cs *ChangeSet) StructuralConflicts(key pcs.Key) []pcs.Triple {
	return cs.structuralConflicts[key]
}

// AddStructuralConflict records that a and b are mutually inconsistent.
func (cs *ChangeSet) AddStructuralConflict(a, b pcs.Triple) {
	cs.structuralConflicts[a.Key()] = append(cs.structuralConflicts[a.Key()], b)
	cs.structuralConflicts[b.Key()] = append(cs.structuralConflicts[b.Key()], a)
}

// AddContentConflict records an unresolved content conflict on node.
func (cs *ChangeSet) AddContentConflict(node pcs.NodeID, c ContentConflict) {
	cs.contentConflicts[node] = append(cs.contentConflicts[node], c)
}

// ContentConflicts returns the unresolved content conflicts recorded for
// node.
func (cs *ChangeSet) ContentConflicts(node pcs.NodeID) []ContentConflict {
	return cs.contentConflicts[node]
}

// AllContentConflicts returns every node with at least one unresolved
// content conflict, used by outputtree to build Result.Conflicts.
func (cs *ChangeSet) AllContentConflicts() map[pcs.NodeID][]ContentConflict {
	return cs.contentConflicts
}

// Registry and ClassRep expose the ChangeSet's collaborators for packages
// further up the pipeline (rawmerge, sporktree) that need to resolve IDs
// or fetch original nodes.
func (cs *ChangeSet) Registry() *pcs.Registry { return cs.reg }
func (cs *ChangeSet) ClassRep() *classrep.Map { return cs.cls }
