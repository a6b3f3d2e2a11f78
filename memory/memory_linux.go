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

//go:build linux

package memory

import "golang.org/x/sys/unix"

// linux implementation of paged memory: an anonymous, private mapping
// with MAP_POPULATE requested so the kernel prefaults every page
// before Mmap returns, matching §4.2's "eager page-fault
// prepopulation" requirement without a manual touch loop.
func mapPaged(n int) ([]byte, func([]byte), error) {
	buf, err := unix.Mmap(-1, 0, n,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_POPULATE)
	if err != nil {
		return nil, nil, err
	}
	unmap := func(b []byte) {
		if err := unix.Munmap(b); err != nil {
			panic("memory: munmap failed: " + err.Error())
		}
	}
	return buf, unmap, nil
}
