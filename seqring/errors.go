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
	"errors"
	"fmt"
)

// Error reports a rejected Append call. It is styled after
// vm/bytecode.go's bcerr: a small struct with an Error() method
// rather than a bare string, so callers can recover the offending
// sequence numbers with IsSequence instead of parsing text.
type Error struct {
	// Prev is the sequence number Offending had to exceed: the ring's
	// watermark when the batch's first record is rejected, or the
	// preceding record's sequence number for a violation inside the
	// batch.
	Prev uint64
	// Offending is the first record seen whose sequence number did
	// not strictly exceed the running watermark.
	Offending uint64
}

func (e *Error) Error() string {
	return fmt.Sprintf("Records appended out of sequence. Prev: %d, Record: %d", e.Prev, e.Offending)
}

// IsSequence reports whether err is, or wraps, a sequence violation
// and returns its detail.
func IsSequence(err error) (*Error, bool) {
	var seqErr *Error
	if errors.As(err, &seqErr) {
		return seqErr, true
	}
	return nil, false
}
