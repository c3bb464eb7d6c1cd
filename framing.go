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

// wordSizeForSize derives the framing-offset word size for a container
// of the given total size from the size alone (the reader's side of the
// bootstrap: it never knows the element count before it knows the word
// size, so it falls back to the size-only thresholds that the writer's
// wordSizeFor search is guaranteed to agree with for any size it could
// actually have produced).
func wordSizeForSize(size int) int {
	switch {
	case size <= 0:
		return 0
	case size <= 0xFF:
		return 0
	case size <= 0xFFFF:
		return 1
	case size <= 0xFFFFFFFF:
		return 2
	default:
		return 3
	}
}

// countDynamicSlots walks a tuple/pair's child type list and reports how
// many framing-offset slots its children occupy: one per dynamic child,
// except the last dynamic child (whose end is implied by the container's
// own end, per spec.md section 4.7).
func countDynamicSlots(c *sigCache, children []byte) (int, error) {
	i := 0
	count := 0
	lastDynamic := false
	for i < len(children) {
		sum, n, err := parseCached(c, children[i:])
		if err != nil {
			return 0, err
		}
		if n == 0 {
			break
		}
		dyn := sum.Size == 0
		if dyn {
			count++
		}
		lastDynamic = dyn
		i += n
	}
	if lastDynamic && count > 0 {
		count--
	}
	return count, nil
}

// nthFramingOffsetFromTail reads the j-th framing offset counting from the
// tail end of lv's table (j=0 is the last word in memory, j=1 the one
// before it, and so on), which holds slotCount entries of lv.WordSize
// bytes each. This "from the tail" indexing is what spec.md section 4.6
// means literally, and it applies the same way to arrays and to
// tuples/pairs: the level's own Index field already encodes which
// direction a given container walks its slots (see peekSlot).
func nthFramingOffsetFromTail(v *Variant, lv *Level, j, slotCount int) (int, bool) {
	if j < 0 || j >= slotCount {
		return 0, false
	}
	wordBytes := 1 << uint(lv.WordSize)
	tableStart := lv.Size - slotCount*wordBytes
	if tableStart < 0 {
		return 0, false
	}
	memIdx := slotCount - 1 - j
	pos := tableStart + memIdx*wordBytes
	if pos < 0 || pos+wordBytes > lv.Size {
		return 0, false
	}
	abs := lv.base + pos
	slice, ok := sliceAt(v.spans.Spans(), abs, wordBytes)
	if !ok {
		return 0, false
	}
	return int(fetchWord(slice, lv.WordSize)), true
}
