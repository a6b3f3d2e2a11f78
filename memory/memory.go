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

// Package memory provides the preallocated, type-erased byte arenas
// that back every ring and slab in this module. A Region owns its
// storage for its full lifetime: it is never resized. A paged Region
// is released deterministically via Close, which unmaps it; Close is
// a no-op for a heap Region, which the garbage collector reclaims.
//
// This mirrors vm/malloc.go's VMM: allocate everything up front,
// never again, and make allocation failure fatal rather than
// recoverable.
package memory

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sandesh-sanjeev/crosstream/record"
)

// Kind selects a Region's backing. Heap uses the global allocator;
// Paged uses an anonymous, prefaulted page mapping intended for very
// large regions (and, eventually, huge pages).
type Kind int

const (
	Heap Kind = iota
	Paged
)

func (k Kind) String() string {
	switch k {
	case Heap:
		return "heap"
	case Paged:
		return "paged"
	default:
		return "unknown"
	}
}

// Debugf, if non-nil, is called with a diagnostic message immediately
// before an allocation failure panics. Mirrors vm/log.go's
// package-level Errorf hook.
var Debugf func(format string, args ...any)

func debugf(format string, args ...any) {
	if Debugf != nil {
		Debugf(format, args...)
	}
}

// Region is a preallocated, contiguous byte arena of fixed capacity.
// It is never reallocated after construction (I4).
type Region struct {
	buf    []byte
	kind   Kind
	closed bool

	mu     sync.Mutex
	unmap  func([]byte)
}

// NewHeap allocates a Region sized and aligned for capacity records
// of type T, using the process's global allocator. Construction
// never fails: allocation failure panics (Go's runtime already
// handles this for us via make, which aborts the process on OOM the
// same way the original's handle_alloc_error does).
func NewHeap[T any](capacity int) *Region {
	if capacity <= 0 {
		panic("memory: capacity must be > 0")
	}
	items := make([]T, capacity)
	return &Region{buf: record.ToBytesSlice(items), kind: Heap}
}

// NewPaged reserves capacity*record.Size[T]() bytes via an anonymous,
// private page mapping with prefaulting requested, so writes during
// normal operation do not incur page faults. Mapping failure is
// abort-style: it panics, there is no fallback to a smaller size.
func NewPaged[T any](capacity int) *Region {
	if capacity <= 0 {
		panic("memory: capacity must be > 0")
	}
	n := record.Size[T]() * capacity
	if n == 0 {
		panic("memory: cannot page-map a zero-size record")
	}
	buf, unmap, err := mapPaged(n)
	if err != nil {
		debugf("memory: paged allocation of %d bytes failed: %v", n, err)
		panic(fmt.Sprintf("memory: paged allocation of %d bytes failed: %v", n, err))
	}
	r := &Region{buf: buf, kind: Paged, unmap: unmap}
	runtime.SetFinalizer(r, (*Region).finalize)
	return r
}

// Bytes returns the full backing byte span. The span is mutable and
// aliases the Region's storage; callers must not retain it past
// Close.
func (r *Region) Bytes() []byte {
	return r.buf
}

// Len returns the Region's fixed byte capacity.
func (r *Region) Len() int {
	return len(r.buf)
}

// Kind reports whether this Region is heap- or page-backed.
func (r *Region) Kind() Kind {
	return r.kind
}

// Close releases a paged Region's mapping deterministically. It is a
// no-op for heap-backed Regions (the garbage collector reclaims
// those). Close is idempotent.
func (r *Region) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.unmap == nil {
		r.closed = true
		return nil
	}
	runtime.SetFinalizer(r, nil)
	r.unmap(r.buf)
	r.closed = true
	r.buf = nil
	return nil
}

// finalize is the GC backstop for paged Regions a caller forgot to
// Close; it mirrors tenant/dcache's reference-counted mapping release
// but triggers off garbage collection instead of a refcount.
func (r *Region) finalize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.unmap == nil {
		return
	}
	r.unmap(r.buf)
	r.closed = true
	r.buf = nil
}
