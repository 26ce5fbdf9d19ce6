// Package ordered re-sequences values that complete out of order.
package ordered

// Item is a value tagged with its original sequence index.
type Item[V any] struct {
	Index int
	Value V
}

// Buffer holds out-of-order completions until every predecessor has been
// delivered. Indices start at zero and each index must be pushed once.
//
// A Buffer is not safe for concurrent use; it is meant to sit on the single
// goroutine that consumes a pool's completions.
type Buffer[V any] struct {
	next    int
	pending map[int]V
}

// NewBuffer returns an empty Buffer whose delivery cursor is at index 0.
func NewBuffer[V any](sizeHint int) *Buffer[V] {
	return &Buffer[V]{
		pending: make(map[int]V, max(sizeHint, 0)),
	}
}

// Push stores v under index and returns the items that became deliverable,
// in index order. The result is empty when index is ahead of the cursor.
// Indices below the cursor or already pending are ignored.
func (b *Buffer[V]) Push(index int, v V) []Item[V] {
	if index < b.next {
		return nil
	}
	if _, dup := b.pending[index]; dup {
		return nil
	}
	b.pending[index] = v

	var ready []Item[V]
	for {
		val, ok := b.pending[b.next]
		if !ok {
			return ready
		}
		delete(b.pending, b.next)
		ready = append(ready, Item[V]{Index: b.next, Value: val})
		b.next++
	}
}

// Next returns the index the buffer is waiting for.
func (b *Buffer[V]) Next() int {
	return b.next
}

// Pending returns the number of buffered items waiting on a predecessor.
func (b *Buffer[V]) Pending() int {
	return len(b.pending)
}
