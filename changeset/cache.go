package changeset

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/manyfold/sporkmerge/pcs"
)

// Cache memoizes ByPredecessor/BySuccessor index lookups for large trees,
// adapted from the teacher's ristretto.Cache[K,V] wrapper
// (pkg/serve/odb/cache.go). It is entirely optional: a nil *Cache disables
// memoization and ChangeSet falls back to the plain index maps.
type Cache struct {
	fwd *ristretto.Cache[pcs.NodeID, []pcs.Triple]
	bwd *ristretto.Cache[pcs.NodeID, []pcs.Triple]
}

// NewCache builds a Cache whose cost budget is capacity, each cached
// index entry costing its triple count plus one. A
// single merge invocation owns the cache exclusively (§5); it is never
// shared across invocations.
func NewCache(capacity int64) (*Cache, error) {
	fwd, err := ristretto.NewCache(&ristretto.Config[pcs.NodeID, []pcs.Triple]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	bwd, err := ristretto.NewCache(&ristretto.Config[pcs.NodeID, []pcs.Triple]{
		NumCounters: capacity * 10,
		MaxCost:     capacity,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{fwd: fwd, bwd: bwd}, nil
}

func (c *Cache) getFwd(id pcs.NodeID) ([]pcs.Triple, bool) { return c.fwd.Get(id) }
func (c *Cache) putFwd(id pcs.NodeID, v []pcs.Triple)      { c.fwd.Set(id, v, int64(len(v)+1)) }
func (c *Cache) getBwd(id pcs.NodeID) ([]pcs.Triple, bool) { return c.bwd.Get(id) }
func (c *Cache) putBwd(id pcs.NodeID, v []pcs.Triple)      { c.bwd.Set(id, v, int64(len(v)+1)) }

func (c *Cache) invalidate(id pcs.NodeID) {
	c.fwd.Del(id)
	c.bwd.Del(id)
}
