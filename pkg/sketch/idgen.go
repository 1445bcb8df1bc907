package sketch

import "sync/atomic"

// IDGenerator mints operation IDs. It is safe for concurrent use; IDs are
// strictly increasing and never issued twice.
type IDGenerator struct {
	last atomic.Uint64
}

// NewIDGenerator returns a generator whose first ID is after+1.
func NewIDGenerator(after ID) *IDGenerator {
	g := &IDGenerator{}
	g.last.Store(uint64(after))
	return g
}

// Next returns a fresh ID.
func (g *IDGenerator) Next() ID {
	return ID(g.last.Add(1))
}

// Observe records an ID that was assigned elsewhere, such as one read from a
// file, so that Next never returns it.
func (g *IDGenerator) Observe(id ID) {
	for {
		cur := g.last.Load()
		if uint64(id) <= cur || g.last.CompareAndSwap(cur, uint64(id)) {
			return
		}
	}
}

// Last returns the highest ID issued or observed.
func (g *IDGenerator) Last() ID {
	return ID(g.last.Load())
}
