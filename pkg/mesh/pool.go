package mesh

// Pool is an insertion-ordered set. Insert returns the position at which a
// key was first seen.
type Pool[K comparable] struct {
	index map[K]uint32
	keys  []K
}

// NewPool returns an empty pool.
func NewPool[K comparable]() *Pool[K] {
	return &Pool[K]{index: make(map[K]uint32)}
}

// Insert adds k if it is new and returns its 0-based position.
func (p *Pool[K]) Insert(k K) uint32 {
	if i, ok := p.index[k]; ok {
		return i
	}
	i := uint32(len(p.keys))
	p.index[k] = i
	p.keys = append(p.keys, k)
	return i
}

// Len returns the number of distinct keys.
func (p *Pool[K]) Len() int {
	return len(p.keys)
}

// Keys returns the keys in first-seen order.
func (p *Pool[K]) Keys() []K {
	return p.keys
}
