// Copyright (C) 2022 Sneller, Inc.
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

package govariant

import "encoding/binary"

// fetchWord reads 1<<k little-endian bytes from buf as a machine word.
// buf must have at least 1<<k bytes.
func fetchWord(buf []byte, k int) uint64 {
	switch k {
	case 0:
		return uint64(buf[0])
	case 1:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 2:
		return uint64(binary.LittleEndian.Uint32(buf))
	default:
		return binary.LittleEndian.Uint64(buf)
	}
}

// storeWord writes v into buf as a 1<<k byte little-endian word. buf
// must have at least 1<<k bytes.
func storeWord(buf []byte, k int, v uint64) {
	switch k {
	case 0:
		buf[0] = byte(v)
	case 1:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case 2:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	default:
		binary.LittleEndian.PutUint64(buf, v)
	}
}

// wordSizeFor picks the smallest k in {0,1,2,3} such that
// base + count*(1<<k) fits in a 1<<k-byte unsigned integer, per the
// container's element count and non-offset overhead. A count of 0
// always yields k=0.
func wordSizeFor(base, count int) int {
	if count <= 0 {
		return 0
	}
	for k := 0; k < 3; k++ {
		limit := uint64(1) << uint(8*(1<<uint(k)))
		total := uint64(base) + uint64(count)*(uint64(1)<<uint(k))
		if total < limit {
			return k
		}
	}
	return 3
}
