package store

// ring is a fixed-capacity circular buffer with index-based eviction.
// When the buffer is full the oldest half is dropped in one step so a
// sustained burst does not pay a per-item eviction on every write.
type ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	size int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v and returns the number of elements evicted to make room.
func (r *ring[T]) push(v T) int {
	evicted := 0
	if r.size == len(r.buf) {
		drop := r.size / 2
		r.head = (r.head + drop) % len(r.buf)
		r.size -= drop
		evicted = drop
	}
	r.buf[(r.head+r.size)%len(r.buf)] = v
	r.size++
	return evicted
}

// dropOldest removes up to n elements from the front and returns how
// many were actually removed.
func (r *ring[T]) dropOldest(n int) int {
	if n > r.size {
		n = r.size
	}
	var zero T
	for i := 0; i < n; i++ {
		r.buf[(r.head+i)%len(r.buf)] = zero
	}
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
	return n
}

func (r *ring[T]) len() int { return r.size }

// at returns the i-th element counted from the oldest.
func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

// all copies the buffer contents in oldest-to-newest order.
func (r *ring[T]) all() []T {
	out := make([]T, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.at(i)
	}
	return out
}
