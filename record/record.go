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

// Package record provides the zero-copy contract between a
// fixed-size, trivially-copyable record type and its byte
// representation.
//
// Any type can play the role of a record: there is no interface to
// implement. The functions here reinterpret a *T or []T in place as
// bytes (and back), the same way vm/aggregate.go reinterprets byte
// spans as typed accumulator registers via unsafe.Pointer. None of
// the functions allocate or copy; they all alias the input.
package record

import "unsafe"

// Size returns the fixed byte footprint of T.
func Size[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// ToBytes aliases v as a byte span of length Size[T]().
func ToBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), Size[T]())
}

// FromBytes aliases b as a *T. b must hold exactly Size[T]() bytes.
func FromBytes[T any](b []byte) *T {
	n := Size[T]()
	if len(b) != n {
		panic("record: FromBytes requires exactly Size[T]() bytes")
	}
	if n == 0 {
		var zero T
		return &zero
	}
	return (*T)(unsafe.Pointer(&b[0]))
}

// ToBytesSlice aliases s as a byte span of length Size[T]()*len(s).
func ToBytesSlice[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), Size[T]()*len(s))
}

// FromBytesSlice aliases b as a []T. len(b) must be a multiple of
// Size[T](); the returned slice holds len(b)/Size[T]() records.
func FromBytesSlice[T any](b []byte) []T {
	n := Size[T]()
	if n == 0 || len(b) == 0 {
		return nil
	}
	if len(b)%n != 0 {
		panic("record: FromBytesSlice requires a multiple of Size[T]() bytes")
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), len(b)/n)
}

// Sequenced is a record that additionally exposes a monotonically
// increasing 64-bit sequence number, the contract SeqRing requires.
type Sequenced interface {
	SeqNo() uint64
}
