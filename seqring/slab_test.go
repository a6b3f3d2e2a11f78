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

func newSlabs(capacity int) []Slab[tick] {
	return []Slab[tick]{
		NewVecSlab[tick](capacity),
		NewMemSlab[tick](capacity, memory.Heap),
		NewMemSlab[tick](capacity, memory.Paged),
	}
}

func TestSlabExtendAndTrim(t *testing.T) {
	for _, s := range newSlabs(4) {
		s.Extend(ticks(1, 2, 3))
		if s.Length() != 3 || s.Remaining() != 1 {
			t.Fatalf("after extend: length=%d remaining=%d", s.Length(), s.Remaining())
		}
		s.Trim(2)
		if got := toVals(s.Records()); !slices.Equal(got, []uint64{3}) {
			t.Fatalf("after trim: got %v", got)
		}
		s.Extend(ticks(4, 5, 6))
		if got := toVals(s.Records()); !slices.Equal(got, []uint64{3, 4, 5, 6}) {
			t.Fatalf("after second extend: got %v", got)
		}
		s.Clear()
		if s.Length() != 0 || s.Remaining() != s.Capacity() {
			t.Fatalf("after clear: length=%d remaining=%d", s.Length(), s.Remaining())
		}
	}
}

func TestSlabExtendPastCapacityPanics(t *testing.T) {
	for _, s := range newSlabs(2) {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			s.Extend(ticks(1, 2, 3))
		}()
	}
}

func TestSlabZeroCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero-capacity VecSlab")
		}
	}()
	NewVecSlab[tick](0)
}

func toVals(records []tick) []uint64 {
	out := make([]uint64, len(records))
	for i, r := range records {
		out[i] = r.SeqNo()
	}
	return out
}
