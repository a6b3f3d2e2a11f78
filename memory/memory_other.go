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

//go:build !linux && !windows

package memory

import (
	"os"
	"syscall"
)

// mapPaged is the fallback unix implementation for GOOS values with
// no MAP_POPULATE equivalent in the stdlib syscall package (darwin,
// the BSDs). Prefault is approximated by touching every page once
// immediately after mapping, the same workaround the original Rust
// benches use for portability across platforms.
func mapPaged(n int) ([]byte, func([]byte), error) {
	buf, err := syscall.Mmap(-1, 0, n,
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_PRIVATE|syscall.MAP_ANON)
	if err != nil {
		return nil, nil, err
	}
	prefault(buf)
	unmap := func(b []byte) {
		if err := syscall.Munmap(b); err != nil {
			panic("memory: munmap failed: " + err.Error())
		}
	}
	return buf, unmap, nil
}

func prefault(buf []byte) {
	page := os.Getpagesize()
	for i := 0; i < len(buf); i += page {
		buf[i] = 0
	}
}
