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
	"slices"
	"testing"

	"github.com/sandesh-sanjeev/crosstream/memory"
)

// tick is the minimal record.Sequenced implementation used across
// this package's tests: its sequence number is itself.
type tick uint64

func (t tick) SeqNo() uint64 { return uint64(t) }

func ticks(vals ...uint64) []tick {
	out := make([]tick, len(vals))
	for i, v := range vals {
		out[i] = tick(v)
	}
	return out
}

func drain(t *testing.T, buf *QueryBuf[tick]) []uint64 {
	t.Helper()
	out := make([]uint64, buf.Length())
	for i, r := range buf.Records() {
		out[i] = r.SeqNo()
	}
	return out
}

// TestQueryFromTrimPrefix is spec.md §8, scenario 3.
func TestQueryFromTrimPrefix(t *testing.T) {
	r := NewVec[tick](4, 3, 0)
	var seq []uint64
	for i := uint64(1); i <= 12; i++ {
		seq = append(seq, i)
	}
	if err := r.Append(ticks(seq...)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	buf := NewQueryBuf[tick](6)
	r.QueryFromTrim(buf)
	if got := drain(t, buf); !slices.Equal(got, []uint64{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("got %v", got)
	}
}

// TestEviction is spec.md §8, scenario 4.
func TestEviction(t *testing.T) {
	r := NewVec[tick](4, 3, 0)
	seq := make([]uint64, 12)
	for i := range seq {
		seq[i] = uint64(i + 1)
	}
	if err := r.Append(ticks(seq...)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Append(ticks(13, 14)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	buf := NewQueryBuf[tick](20)
	r.QueryFromTrim(buf)
	want := []uint64{5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	if got := drain(t, buf); !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestQueryAfter is spec.md §8, scenario 5 (continues scenario 4's state).
func TestQueryAfter(t *testing.T) {
	r := NewVec[tick](4, 3, 0)
	seq := make([]uint64, 12)
	for i := range seq {
		seq[i] = uint64(i + 1)
	}
	mustAppend(t, r, seq...)
	mustAppend(t, r, 13, 14)

	buf := NewQueryBuf[tick](4)
	r.QueryAfter(8, buf)
	if got := drain(t, buf); !slices.Equal(got, []uint64{9, 10, 11, 12}) {
		t.Fatalf("query_after(8) = %v", got)
	}

	r.QueryAfter(100, buf)
	if got := drain(t, buf); len(got) != 0 {
		t.Fatalf("query_after(100) = %v, want empty", got)
	}

	buf3 := NewQueryBuf[tick](3)
	r.QueryAfter(0, buf3)
	if got := drain(t, buf3); !slices.Equal(got, []uint64{5, 6, 7}) {
		t.Fatalf("query_after(0) = %v", got)
	}
}

// TestSparseKeys is spec.md §8, scenario 6.
func TestSparseKeys(t *testing.T) {
	r := NewVec[tick](4, 3, 0)
	mustAppend(t, r, 10, 20, 30, 40, 50, 60)

	buf := NewQueryBuf[tick](10)
	r.QueryAfter(25, buf)
	if got := drain(t, buf); !slices.Equal(got, []uint64{30, 40, 50, 60}) {
		t.Fatalf("query_after(25) = %v", got)
	}

	r.QueryAfter(30, buf)
	if got := drain(t, buf); !slices.Equal(got, []uint64{40, 50, 60}) {
		t.Fatalf("query_after(30) = %v", got)
	}
}

// TestSequenceViolation is spec.md §8, scenario 7.
func TestSequenceViolation(t *testing.T) {
	r := NewVec[tick](4, 2, 5)

	err := r.Append(ticks(5, 6, 7))
	seqErr, ok := IsSequence(err)
	if !ok {
		t.Fatalf("expected a sequence error, got %v", err)
	}
	if seqErr.Prev != 5 || seqErr.Offending != 5 {
		t.Fatalf("got Prev=%d Offending=%d, want Prev=5 Offending=5", seqErr.Prev, seqErr.Offending)
	}

	buf := NewQueryBuf[tick](5)
	r.QueryFromTrim(buf)
	if got := drain(t, buf); len(got) != 0 {
		t.Fatalf("ring mutated by a rejected append: %v", got)
	}
	if r.Watermark() != 5 {
		t.Fatalf("watermark moved to %d, want unchanged at 5", r.Watermark())
	}
}

func TestIntraBatchViolationRejectsWholeBatch(t *testing.T) {
	r := NewVec[tick](4, 2, 0)
	// First record is fine in isolation, but the batch is not
	// strictly ascending; decision #2 in SPEC_FULL.md §7 rejects the
	// entire batch rather than partially committing it.
	err := r.Append(ticks(1, 2, 2, 3))
	if _, ok := IsSequence(err); !ok {
		t.Fatalf("expected a sequence error, got %v", err)
	}
	if r.Watermark() != 0 {
		t.Fatalf("watermark moved to %d, want unchanged at 0", r.Watermark())
	}
}

func TestEmptyAppendIsNoop(t *testing.T) {
	r := NewVec[tick](4, 2, 7)
	if err := r.Append(nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}
	if r.Watermark() != 7 {
		t.Fatalf("watermark = %d, want 7", r.Watermark())
	}
}

func TestTooFewSlotsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for fewer than 2 slots")
		}
	}()
	NewVec[tick](4, 1, 0)
}

func TestHeapAndPagedBackings(t *testing.T) {
	for name, ring := range map[string]*SeqRing[tick]{
		"heap":  New[tick](4, 3, 0, memory.Heap),
		"paged": New[tick](4, 3, 0, memory.Paged),
	} {
		t.Run(name, func(t *testing.T) {
			mustAppend(t, ring, 1, 2, 3, 4, 5)
			buf := NewQueryBuf[tick](5)
			ring.QueryFromTrim(buf)
			if got := drain(t, buf); !slices.Equal(got, []uint64{1, 2, 3, 4, 5}) {
				t.Fatalf("got %v", got)
			}
		})
	}
}

func mustAppend(t *testing.T, r *SeqRing[tick], vals ...uint64) {
	t.Helper()
	if err := r.Append(ticks(vals...)); err != nil {
		t.Fatalf("Append(%v): %v", vals, err)
	}
}
