// Copyright (C) 2024 The Crosstream Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package hadron implements a fixed-capacity ring buffer whose bulk
// append is exactly two contiguous byte copies and whose read path
// hands back the live records as a head/tail slice pair without
// copying.
package hadron

import (
	"github.com/sandesh-sanjeev/crosstream/memory"
	"github.com/sandesh-sanjeev/crosstream/record"
)

// Hadron is a fixed-capacity ring buffer. Old records are silently
// overwritten once it is full; there is no failure mode for Append.
type Hadron[T any] struct {
	capacity int
	next     int // index the next Append writes to first
	length   int // number of live records

	region *memory.Region

	// pow2 mirrors REDESIGN FLAGS' "standardise on preserve tail,
	// wrap via modulo, leave the bit-mask optimisation as an
	// internal detail": capacity need not be a power of two, but
	// when it is we wrap with a mask instead of a division.
	pow2 bool
}

// New constructs a Hadron with capacity records of backing storage,
// allocated once on the global heap and never reallocated. capacity
// must be > 0.
func New[T any](capacity int) *Hadron[T] {
	if capacity <= 0 {
		panic("hadron: capacity must be > 0")
	}
	return &Hadron[T]{
		capacity: capacity,
		region:   memory.NewHeap[T](capacity),
		pow2:     isPowerOfTwo(capacity),
	}
}

// NewPaged is New, but backed by prefaulted anonymous page memory
// instead of the global heap allocator. Intended for very large
// ring capacities.
func NewPaged[T any](capacity int) *Hadron[T] {
	if capacity <= 0 {
		panic("hadron: capacity must be > 0")
	}
	return &Hadron[T]{
		capacity: capacity,
		region:   memory.NewPaged[T](capacity),
		pow2:     isPowerOfTwo(capacity),
	}
}

// Cap returns the maximum number of records this ring can hold.
func (h *Hadron[T]) Cap() int {
	return h.capacity
}

// Len returns the number of records currently live in the ring.
func (h *Hadron[T]) Len() int {
	return h.length
}

func (h *Hadron[T]) storage() []T {
	return record.FromBytesSlice[T](h.region.Bytes())
}

// Append bulk-copies items into the ring. If len(items) exceeds the
// ring's capacity, the leading items.len()-capacity items are dropped
// first since they would be overwritten immediately; what remains is
// written in at most two contiguous copies regardless of size (P2).
func (h *Hadron[T]) Append(items []T) {
	cap := h.capacity
	if len(items) > cap {
		items = items[len(items)-cap:]
	}

	storage := h.storage()
	remaining := cap - h.next

	first, second := items, items[:0]
	if len(items) > remaining {
		first, second = items[:remaining], items[remaining:]
	}

	// Exactly two memcpy-equivalent copies: copy() compiles to a
	// single memmove per call.
	copy(storage[h.next:], first)
	copy(storage[:len(second)], second)

	if h.pow2 {
		h.next = (h.next + len(items)) & (cap - 1)
	} else {
		h.next = (h.next + len(items)) % cap
	}
	h.length = min(h.length+len(items), cap)
}

// Slices returns the live records, oldest first, as two contiguous
// slices: once the ring is full, head covers storage[next:] (the
// older records) and tail covers storage[:next] (the wrapped-around
// portion written after head). When the ring is not yet full, head
// holds every live record and tail is empty.
func (h *Hadron[T]) Slices() (head, tail []T) {
	storage := h.storage()
	if h.length < h.capacity {
		return storage[:h.length], nil
	}
	return storage[h.next:], storage[:h.next]
}

// All is a range-over-func iterator yielding every live record in
// append order (the logical concatenation of Slices' head and tail).
func (h *Hadron[T]) All(yield func(T) bool) {
	head, tail := h.Slices()
	for _, v := range head {
		if !yield(v) {
			return
		}
	}
	for _, v := range tail {
		if !yield(v) {
			return
		}
	}
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
