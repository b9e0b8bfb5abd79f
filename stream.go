package linden

import "fmt"

// Stream is an insertion-ordered attribute array addressed by plain int
// indices. Removing a range shifts every later element down, so indices
// past the removal point must be rewritten by the owner.
//
// The zero value is an empty stream ready to use.
type Stream[T any] struct {
	items []T
}

// Push appends v and returns its index.
func (s *Stream[T]) Push(v T) int {
	s.items = append(s.items, v)
	return len(s.items) - 1
}

// Len returns the number of elements.
func (s *Stream[T]) Len() int { return len(s.items) }

// At returns a copy of element i.
func (s *Stream[T]) At(i int) T {
	s.check(i)
	return s.items[i]
}

// Ptr returns a pointer to element i. The pointer is invalidated by Push,
// RemoveRange and Clear.
func (s *Stream[T]) Ptr(i int) *T {
	s.check(i)
	return &s.items[i]
}

// Set overwrites element i.
func (s *Stream[T]) Set(i int, v T) {
	s.check(i)
	s.items[i] = v
}

// RemoveRange deletes n elements starting at from.
func (s *Stream[T]) RemoveRange(from, n int) {
	if n <= 0 {
		return
	}
	if from < 0 || from+n > len(s.items) {
		panic(fmt.Sprintf("linden: stream range [%d, %d) out of bounds (len %d)", from, from+n, len(s.items)))
	}
	copy(s.items[from:], s.items[from+n:])
	tail := len(s.items) - n
	clear(s.items[tail:])
	s.items = s.items[:tail]
}

// RemoveAt deletes element i.
func (s *Stream[T]) RemoveAt(i int) {
	s.RemoveRange(i, 1)
}

// Clear empties the stream, keeping its capacity.
func (s *Stream[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// Slice returns the backing slice. Callers must not append to it.
func (s *Stream[T]) Slice() []T { return s.items }

func (s *Stream[T]) check(i int) {
	if i < 0 || i >= len(s.items) {
		panic(fmt.Sprintf("linden: stream index %d out of range (len %d)", i, len(s.items)))
	}
}
