package pcs

// Triple is one PCS encoding of "successor follows predecessor under root"
// (§3). Revision is carried for diagnostics and for the raw merge's
// base-membership checks, but is explicitly excluded from equality/hashing.
type Triple struct {
	Root, Pred, Succ NodeID
	Revision         Revision
}

// Key is the (root, predecessor, successor) identity of a triple, ignoring
// revision, used wherever the spec requires triple equality/hashing to
// ignore the revision tag (§3).
type Key struct {
	Root, Pred, Succ NodeID
}

func (t Triple) Key() Key { return Key{t.Root, t.Pred, t.Succ} }

// TripleSet is an unordered collection of triples, deduplicated by Key.
// Spec.md makes no ordering guarantee over such sets (§5); this type
// preserves insertion order only incidentally (for deterministic test
// output), never as a documented contract.
type TripleSet struct {
	order []Key
	byKey map[Key]Triple
}

func NewTripleSet() *TripleSet {
	return &TripleSet{byKey: make(map[Key]Triple)}
}

// Add inserts t, returning false if a triple with the same Key already
// existed (the existing entry is left untouched — callers that need a
// specific revision to win, e.g. "prefer BASE", must check Get first).
func (s *TripleSet) Add(t Triple) bool {
	k := t.Key()
	if _, exists := s.byKey[k]; exists {
		return false
	}
	s.byKey[k] = t
	s.order = append(s.order, k)
	return true
}

// Put inserts or overwrites t unconditionally.
func (s *TripleSet) Put(t Triple) {
	k := t.Key()
	if _, exists := s.byKey[k]; !exists {
		s.order = append(s.order, k)
	}
	s.byKey[k] = t
}

func (s *TripleSet) Get(k Key) (Triple, bool) {
	t, ok := s.byKey[k]
	return t, ok
}

func (s *TripleSet) Contains(k Key) bool {
	_, ok := s.byKey[k]
	return ok
}

func (s *TripleSet) Remove(k Key) {
	delete(s.byKey, k)
}

func (s *TripleSet) Len() int { return len(s.byKey) }

// Slice returns the triples in (incidental) insertion order.
func (s *TripleSet) Slice() []Triple {
	out := make([]Triple, 0, len(s.order))
	for _, k := range s.order {
		if t, ok := s.byKey[k]; ok {
			out = append(out, t)
		}
	}
	return out
}
