package spec

import (
	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/tt"
)

// A Trivial describes an output computed without any gate.
type Trivial struct {
	Node     int
	Inverted bool
}

type cacheEntry struct {
	trivial Trivial
	ok      bool
}

// A Cache remembers which truth tables are trivial.
// It is meant to live as long as a single synthesis call; it is not safe for concurrent use.
type Cache struct {
	entries map[string]cacheEntry
	hits    int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Hits returns how many lookups were answered from the cache.
func (c *Cache) Hits() int { return c.hits }

func key(f, dc tt.TT) string {
	if !dc.Valid() {
		return f.Hex()
	}
	return f.Hex() + "/" + dc.Hex()
}

// Trivial returns the constant or (inverted) input equal to f on the rows not in dc, if any.
// Constants are preferred over inputs, and non-inverted inputs over inverted ones.
func (c *Cache) Trivial(f, dc tt.TT) (Trivial, bool) {
	k := key(f, dc)
	if e, ok := c.entries[k]; ok {
		c.hits++
		return e.trivial, e.ok
	}
	triv, ok := trivial(f, dc)
	c.entries[k] = cacheEntry{trivial: triv, ok: ok}
	return triv, ok
}

func trivial(f, dc tt.TT) (Trivial, bool) {
	n := f.NbVars()
	zero := tt.New(n)
	if f.EqualUnder(zero, dc) {
		return Trivial{Node: chain.Const}, true
	}
	if f.EqualUnder(zero.Not(), dc) {
		return Trivial{Node: chain.Const, Inverted: true}, true
	}
	for i := 0; i < n; i++ {
		v := tt.Nth(n, i)
		if f.EqualUnder(v, dc) {
			return Trivial{Node: i + 1}, true
		}
		if f.EqualUnder(v.Not(), dc) {
			return Trivial{Node: i + 1, Inverted: true}, true
		}
	}
	return Trivial{}, false
}
