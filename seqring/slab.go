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

package seqring

import (
	"github.com/sandesh-sanjeev/crosstream/memory"
	"github.com/sandesh-sanjeev/crosstream/record"
)

// Slab is a contiguous, bounded, append-only-plus-front-trim
// container of records. It is the building block SeqRing segments
// its storage into. Two implementations are provided: VecSlab (a
// growable-capacity-fixed slice) and MemSlab (backed by a
// memory.Region, heap- or page-mapped).
//
// Internal: this interface exists so SeqRing can hold either backing
// uniformly; it is not meant to be implemented outside this package.
type Slab[T any] interface {
	Capacity() int
	Length() int
	Remaining() int
	Extend(items []T)
	Trim(n int)
	Clear()
	Records() []T
}

// VecSlab is a Slab backed by a slice constructed with its final
// capacity and never reallocated.
type VecSlab[T any] struct {
	items []T
}

// NewVecSlab constructs a VecSlab able to hold exactly capacity
// records without ever reallocating.
func NewVecSlab[T any](capacity int) *VecSlab[T] {
	if capacity <= 0 {
		panic("seqring: slab capacity must be > 0")
	}
	return &VecSlab[T]{items: make([]T, 0, capacity)}
}

func (s *VecSlab[T]) Capacity() int  { return cap(s.items) }
func (s *VecSlab[T]) Length() int    { return len(s.items) }
func (s *VecSlab[T]) Remaining() int { return cap(s.items) - len(s.items) }

func (s *VecSlab[T]) Extend(items []T) {
	if len(items) > s.Remaining() {
		panic("seqring: extend exceeds remaining capacity")
	}
	s.items = append(s.items, items...)
}

func (s *VecSlab[T]) Trim(n int) {
	if n > len(s.items) {
		panic("seqring: trim exceeds length")
	}
	copy(s.items, s.items[n:])
	s.items = s.items[:len(s.items)-n]
}

func (s *VecSlab[T]) Clear()        { s.items = s.items[:0] }
func (s *VecSlab[T]) Records() []T { return s.items }

// MemSlab is a Slab backed by a raw memory.Region: records live in a
// type-erased byte arena and are reinterpreted on access, the way
// original_source/crosstream-ring/src/storage.rs's MmapStorage works.
type MemSlab[T any] struct {
	region   *memory.Region
	capacity int
	length   int
}

// NewMemSlab constructs a MemSlab of the given kind (heap or paged).
func NewMemSlab[T any](capacity int, kind memory.Kind) *MemSlab[T] {
	if capacity <= 0 {
		panic("seqring: slab capacity must be > 0")
	}
	var region *memory.Region
	switch kind {
	case memory.Heap:
		region = memory.NewHeap[T](capacity)
	case memory.Paged:
		region = memory.NewPaged[T](capacity)
	default:
		panic("seqring: unknown memory kind")
	}
	return &MemSlab[T]{region: region, capacity: capacity}
}

func (s *MemSlab[T]) Capacity() int  { return s.capacity }
func (s *MemSlab[T]) Length() int    { return s.length }
func (s *MemSlab[T]) Remaining() int { return s.capacity - s.length }

func (s *MemSlab[T]) storage() []T {
	return record.FromBytesSlice[T](s.region.Bytes())
}

func (s *MemSlab[T]) Extend(items []T) {
	if len(items) > s.Remaining() {
		panic("seqring: extend exceeds remaining capacity")
	}
	copy(s.storage()[s.length:], items)
	s.length += len(items)
}

// Trim shifts the surviving records down to byte offset zero in a
// single overlapping move (Go's copy is memmove-safe), rather than
// reallocating.
func (s *MemSlab[T]) Trim(n int) {
	if n > s.length {
		panic("seqring: trim exceeds length")
	}
	storage := s.storage()
	copy(storage, storage[n:s.length])
	s.length -= n
}

func (s *MemSlab[T]) Clear()        { s.length = 0 }
func (s *MemSlab[T]) Records() []T { return s.storage()[:s.length] }
