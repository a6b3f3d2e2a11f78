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

// QueryBuf is a caller-owned, reusable destination for SeqRing query
// results: a fixed-capacity buffer a caller allocates once and passes
// to QueryFromTrim/QueryAfter on every call, avoiding a per-query
// allocation. Grounded on original_source/src/buf.rs.
type QueryBuf[T any] struct {
	slab *VecSlab[T]
}

// NewQueryBuf constructs a QueryBuf able to hold up to capacity
// records.
func NewQueryBuf[T any](capacity int) *QueryBuf[T] {
	if capacity <= 0 {
		panic("seqring: QueryBuf capacity must be > 0")
	}
	return &QueryBuf[T]{slab: NewVecSlab[T](capacity)}
}

func (b *QueryBuf[T]) Capacity() int { return b.slab.Capacity() }
func (b *QueryBuf[T]) Length() int   { return b.slab.Length() }
func (b *QueryBuf[T]) Records() []T  { return b.slab.Records() }
func (b *QueryBuf[T]) Clear()        { b.slab.Clear() }

// Remaining and Extend exist so SeqRing can fill the buffer in place.
// original_source/src/buf.rs scopes the equivalent methods
// pub(crate); Go has no cross-package-private visibility narrower
// than the package itself, so these stay exported but are not meant
// to be called outside a query implementation.
func (b *QueryBuf[T]) Remaining() int   { return b.slab.Remaining() }
func (b *QueryBuf[T]) Extend(items []T) { b.slab.Extend(items) }
