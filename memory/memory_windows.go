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

//go:build windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// windows implementation of paged memory: VirtualAlloc with
// MEM_COMMIT backs the pages with physical memory up front, which is
// the closest Windows equivalent to MAP_POPULATE prefaulting.
func mapPaged(n int) ([]byte, func([]byte), error) {
	addr, err := windows.VirtualAlloc(0, uintptr(n),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, err
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	unmap := func([]byte) {
		if err := windows.VirtualFree(addr, 0, windows.MEM_RELEASE); err != nil {
			panic("memory: VirtualFree failed: " + err.Error())
		}
	}
	return buf, unmap, nil
}
