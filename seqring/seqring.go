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

// Package seqring implements a segmented, sequence-number-indexed
// ring of slabs: records accumulate into a bounded number of
// fixed-capacity slabs, the oldest slab is recycled once the pool of
// free slabs is exhausted, and queries can resume from an arbitrary
// prior sequence number without scanning discarded records.
//
// Grounded on original_source/src/ring.rs.
package seqring

import (
	"golang.org/x/exp/slices"

	"github.com/sandesh-sanjeev/crosstream/memory"
	"github.com/sandesh-sanjeev/crosstream/record"
)

// Logger receives diagnostic messages, e.g. when a slab is recycled
// to make room for new records. Styled after tenant/dcache.Cache's
// exported Logger field; nil disables logging.
type Logger interface {
	Printf(format string, args ...any)
}

// entry maps a watermark (the sequence number of the last record
// written to the *previous* slab, i.e. the first record in slab may
// have any sequence number strictly greater than key) to the slab
// holding the records that follow it.
type entry[T any] struct {
	key  uint64
	slab Slab[T]
}

// SeqRing is a segmented ring of slabs indexed by sequence number.
// T must implement record.Sequenced so the ring can validate
// ordering and locate records by sequence number.
//
// entries is itself a fixed-capacity ring (the same wraparound idiom
// as hadron.Hadron), sized exactly `slots` at construction and never
// reallocated: head/count track the logical, ascending-by-key window
// of live entries within it, so promote never needs to grow or
// reslice the backing array (P7).
type SeqRing[T record.Sequenced] struct {
	// Logger, if non-nil, receives a message each time a slab is
	// recycled to make room for new records.
	Logger Logger

	prevSeqNo uint64

	entries []entry[T] // fixed capacity `slots`, indexed via at()
	head    int        // physical index of the oldest live entry
	count   int        // number of live entries

	free []Slab[T] // LIFO pool of empty, ready-to-use slabs
}

func newSeqRing[T record.Sequenced](slotCapacity, slots int, prevSeqNo uint64, makeSlab func(int) Slab[T]) *SeqRing[T] {
	if slots < 2 {
		panic("seqring: a ring must have at least 2 slots")
	}
	if slotCapacity < 1 {
		panic("seqring: a slot must hold at least 1 record")
	}

	free := make([]Slab[T], 0, slots-1)
	for i := 0; i < slots-1; i++ {
		free = append(free, makeSlab(slotCapacity))
	}

	entries := make([]entry[T], slots)
	entries[0] = entry[T]{key: prevSeqNo, slab: makeSlab(slotCapacity)}

	return &SeqRing[T]{
		prevSeqNo: prevSeqNo,
		entries:   entries,
		count:     1,
		free:      free,
	}
}

// at returns the i-th live entry in ascending-key order, 0 <= i < count.
func (r *SeqRing[T]) at(i int) *entry[T] {
	return &r.entries[(r.head+i)%len(r.entries)]
}

// active returns the newest (currently being written) entry.
func (r *SeqRing[T]) active() *entry[T] {
	return r.at(r.count - 1)
}

// New constructs a SeqRing whose slabs are MemSlab, backed by kind
// (memory.Heap or memory.Paged) memory.Region allocations: slots
// slabs of slotCapacity records each. prevSeqNo is the watermark of
// the last record already consumed by a prior instance (zero for a
// fresh ring).
func New[T record.Sequenced](slotCapacity, slots int, prevSeqNo uint64, kind memory.Kind) *SeqRing[T] {
	return newSeqRing[T](slotCapacity, slots, prevSeqNo, func(c int) Slab[T] { return NewMemSlab[T](c, kind) })
}

// NewVec constructs a SeqRing whose slabs are growable-capacity-fixed
// slices (VecSlab) instead of memory.Region allocations.
func NewVec[T record.Sequenced](slotCapacity, slots int, prevSeqNo uint64) *SeqRing[T] {
	return newSeqRing[T](slotCapacity, slots, prevSeqNo, func(c int) Slab[T] { return NewVecSlab[T](c) })
}

// Watermark returns the sequence number of the most recently accepted
// record (or the prevSeqNo the ring was constructed with, if Append
// has never succeeded with a non-empty batch).
func (r *SeqRing[T]) Watermark() uint64 { return r.prevSeqNo }

// Append validates then admits records into the ring. The entire
// batch is validated upfront: every record's sequence number must
// strictly exceed the one before it, and the first record's sequence
// number must strictly exceed the ring's current watermark. If any
// record fails that check, the whole batch is rejected and the ring
// is left unmodified; the decision to validate upfront rather than
// just the first record is recorded in SPEC_FULL.md §7 (Open Question
// 2).
//
// Records that do not fit in the active slab spill into newly
// promoted slabs, pulled from the free pool or, once that pool is
// exhausted, recycled from the oldest (smallest-key) entry.
func (r *SeqRing[T]) Append(records []T) error {
	if len(records) == 0 {
		return nil
	}

	prev := r.prevSeqNo
	for _, rec := range records {
		seq := rec.SeqNo()
		if seq <= prev {
			return &Error{Prev: prev, Offending: seq}
		}
		prev = seq
	}

	for len(records) > 0 {
		active := r.active()
		if n := min(active.slab.Remaining(), len(records)); n > 0 {
			active.slab.Extend(records[:n])
			r.prevSeqNo = records[n-1].SeqNo()
			records = records[n:]
		}
		if len(records) == 0 {
			break
		}
		r.promote()
	}
	return nil
}

// promote installs a freshly cleared slab as the new active entry,
// keyed at the ring's current watermark. It pulls from the free pool
// first and only recycles the oldest entry's slab once the pool is
// empty; either way it writes into entries' existing backing array in
// place, never growing or reslicing it.
func (r *SeqRing[T]) promote() {
	var next Slab[T]
	if n := len(r.free); n > 0 {
		next, r.free = r.free[n-1], r.free[:n-1]
	} else {
		oldest := r.entries[r.head]
		if r.Logger != nil {
			r.Logger.Printf("seqring: recycling slab with watermark %d", oldest.key)
		}
		next = oldest.slab
		r.head = (r.head + 1) % len(r.entries)
		r.count--
	}
	next.Clear()
	idx := (r.head + r.count) % len(r.entries)
	r.entries[idx] = entry[T]{key: r.prevSeqNo, slab: next}
	r.count++
}

// QueryFromTrim fills buf, starting from Clear, with the oldest
// records currently retained by the ring, up to buf's capacity.
func (r *SeqRing[T]) QueryFromTrim(buf *QueryBuf[T]) {
	buf.Clear()
	for i := 0; i < r.count; i++ {
		if buf.Remaining() == 0 {
			break
		}
		records := r.at(i).slab.Records()
		n := min(buf.Remaining(), len(records))
		buf.Extend(records[:n])
	}
}

// QueryAfter fills buf, starting from Clear, with the records whose
// sequence number strictly exceeds seqNo, in ascending order, up to
// buf's capacity. If seqNo is at or past the ring's watermark, buf is
// left empty.
//
// The search locates the slab whose key is the greatest one not
// exceeding seqNo (or, if seqNo is smaller than every key, the oldest
// retained slab) via a binary search over entries, then binary
// searches within that slab for the first record past seqNo.
// Subsequent slabs are copied from their beginning. For example, with
// entries keyed 3 -> [4,5,6] and 6 -> [7,8,9], QueryAfter(5) locates
// key 3 (the greatest key <= 5), finds 6 is the first record > 5
// within it, and yields [6,7,8,9].
func (r *SeqRing[T]) QueryAfter(seqNo uint64, buf *QueryBuf[T]) {
	buf.Clear()
	if seqNo >= r.prevSeqNo {
		return
	}

	// entries physically wraps around a fixed-size backing array, so
	// slices.BinarySearchFunc (which needs a contiguous slice in
	// logical order) cannot run over it directly; binary search the
	// logical index range [0, count) through at() instead, finding the
	// first entry whose key is not less than seqNo.
	lo, hi := 0, r.count
	for lo < hi {
		mid := (lo + hi) / 2
		if r.at(mid).key < seqNo {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	found := lo < r.count && r.at(lo).key == seqNo

	start := lo
	switch {
	case found:
		start = lo
	case lo > 0:
		start = lo - 1
	default:
		// seqNo is smaller than every key; S1 guarantees entries is
		// non-empty, so fall back to the oldest retained slab.
		start = 0
	}

	for i := start; i < r.count; i++ {
		if buf.Remaining() == 0 {
			break
		}
		records := r.at(i).slab.Records()
		if i == start {
			j, foundInner := slices.BinarySearchFunc(records, seqNo, func(rec T, seqNo uint64) int {
				switch {
				case rec.SeqNo() < seqNo:
					return -1
				case rec.SeqNo() > seqNo:
					return 1
				default:
					return 0
				}
			})
			if foundInner {
				j++
			}
			records = records[j:]
		}
		n := min(buf.Remaining(), len(records))
		buf.Extend(records[:n])
	}
}
