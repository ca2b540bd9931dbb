package tracer

// lruBuffer is a tiny most-recently-used list backing the per-light
// shadow caches. The Whitted tracer probes the handful of triangles
// that last occluded a light before paying for a full tree query.
type lruBuffer[T comparable] struct {
	items []T
	cap   int
}

func newLRUBuffer[T comparable](capacity int) *lruBuffer[T] {
	return &lruBuffer[T]{cap: capacity}
}

// Use moves item to the front, inserting it if absent and evicting the
// oldest entry when full.
func (b *lruBuffer[T]) Use(item T) {
	for i, it := range b.items {
		if it == item {
			copy(b.items[1:i+1], b.items[:i])
			b.items[0] = item
			return
		}
	}
	if len(b.items) < b.cap {
		b.items = append(b.items, item)
	}
	copy(b.items[1:], b.items)
	b.items[0] = item
}

// Items returns the cached entries, most recent first. The slice is
// owned by the buffer.
func (b *lruBuffer[T]) Items() []T {
	return b.items
}
