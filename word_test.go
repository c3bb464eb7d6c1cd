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

import "testing"

func TestFetchStoreWordRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0x7f, 0xabcdef0123456789}
	for k := 0; k <= 3; k++ {
		width := uint(8 * (1 << uint(k)))
		mask := uint64(1)<<width - 1
		if width == 64 {
			mask = ^uint64(0)
		}
		for _, v := range values {
			v &= mask
			buf := make([]byte, 8)
			storeWord(buf, k, v)
			if got := fetchWord(buf, k); got != v {
				t.Errorf("k=%d v=%#x: got %#x", k, v, got)
			}
		}
	}
}

func TestWordSizeForPicksSmallestFit(t *testing.T) {
	cases := []struct {
		base, count, want int
	}{
		{0, 0, 0},
		{0, 3, 0},    // 3 bytes of 1-byte offsets fits in a uint8 total
		{250, 10, 1}, // 250+10*1=260 doesn't fit uint8, needs 2-byte words
		{1 << 20, 4, 2},
	}
	for _, c := range cases {
		got := wordSizeFor(c.base, c.count)
		if got != c.want {
			t.Errorf("wordSizeFor(%d,%d): got %d, want %d", c.base, c.count, got, c.want)
		}
	}
}

func TestWordSizeForSizeThresholds(t *testing.T) {
	cases := []struct {
		size int
		want int
	}{
		{0, 0},
		{0xFF, 0},
		{0x100, 1},
		{0xFFFF, 1},
		{0x10000, 2},
	}
	for _, c := range cases {
		if got := wordSizeForSize(c.size); got != c.want {
			t.Errorf("wordSizeForSize(%d): got %d, want %d", c.size, got, c.want)
		}
	}
}
