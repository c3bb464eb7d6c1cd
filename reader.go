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

import (
	"encoding/binary"
	"math"
)

// Rewind resets a sealed variant's cursor back to its root level, so it
// can be read again from the start. rewind(rewind(v)) == rewind(v).
func (v *Variant) Rewind() error {
	if !v.sealed {
		return v.poisonIfUnset(fault(NullVariantMutation, "Rewind", "sealed variant", "unsealed"))
	}
	total, ok := v.spans.TotalLen()
	if !ok {
		return v.poisonIfUnset(fault(BufferTooLarge, "Rewind"))
	}
	v.levels.reset()
	root, err := v.levels.push()
	if err != nil {
		return v.poisonIfUnset(err)
	}
	*root = Level{Enclosing: 0, Type: []byte(v.typeStr), Size: total}
	return nil
}

// peekSlot computes the (start, end) byte range, relative to lv's own
// container start, of the next unread element at lv, plus the number of
// type characters it occupies. ok is false if the slot cannot be resolved
// (exhausted, truncated, or not covered by a single span): callers treat
// that as "yields the default value" per spec.md section 6.
func (v *Variant) peekSlot(lv *Level) (start, end, consumed int, ok bool) {
	if len(lv.Type) == 0 {
		return 0, 0, 0, false
	}
	c := lv.Type[0]
	e, known := elementAt(c)
	if !known {
		return 0, 0, 0, false
	}
	if e.fixed {
		start = alignUp(lv.Offset, int(e.align))
		end = start + int(e.size)
		if start < lv.Offset || end > lv.Size {
			return start, start, 1, false
		}
		return start, end, 1, true
	}

	sum, n, err := parseCached(v.cache, lv.Type)
	if err != nil || n == 0 {
		return 0, 0, 0, false
	}
	start = alignUp(lv.Offset, sum.Align)
	isLast := len(lv.Type) == n

	switch lv.Enclosing {
	case 'v':
		end = lv.Index - 1
	case 'm':
		// A maybe's marker byte only exists when its child is dynamic-sized
		// (see Writer.End); a fixed-size child fills the whole slot.
		if sum.Size != 0 {
			end = lv.Size
		} else {
			end = lv.Size - 1
		}
	case 'a':
		if lv.childFixed {
			end = start + lv.childSize
		} else if off, okk := nthFramingOffsetFromTail(v, lv, lv.Index-1, lv.slotCount); okk {
			end = off
		} else {
			return start, start, n, false
		}
	case '(', '{':
		if sum.Size != 0 {
			// A fixed-size member has no framing slot; its size gives its end.
			end = start + sum.Size
		} else if isLast {
			// The last member has no framing slot of its own; its end is
			// implied by the container's end, net of this container's own
			// trailing framing table (zero-sized when slotCount is 0).
			end = lv.Size - lv.slotCount*(1<<uint(lv.WordSize))
		} else if off, okk := nthFramingOffsetFromTail(v, lv, lv.Index-1, lv.slotCount); okk {
			end = off
		} else {
			return start, start, n, false
		}
	default: // root
		end = lv.Size
	}

	if start < lv.Offset || end < start || end > lv.Size {
		return start, start, n, false
	}
	return start, end, n, true
}

// advance moves lv's cursor past an element just consumed, ending at
// local offset end, and applies the per-container-kind bookkeeping
// spec.md section 4.6 describes.
func advanceLevel(lv *Level, end int, dynamic bool, consumed int) {
	lv.Offset = end
	switch lv.Enclosing {
	case 'a', 'm':
		if lv.Index > 0 {
			lv.Index--
		}
	case '(', '{':
		if dynamic {
			lv.Index++
		}
		if consumed <= len(lv.Type) {
			lv.Type = lv.Type[consumed:]
		}
	default: // root, v
		if consumed <= len(lv.Type) {
			lv.Type = lv.Type[consumed:]
		}
	}
}

// PeekCount reports the live element count for an 'a' or 'm' level; for
// any other kind it reports 1 if residual type characters remain at the
// level and 0 otherwise, however many members those characters describe.
func (v *Variant) PeekCount() int {
	lv := v.levels.top()
	if lv == nil {
		return 0
	}
	switch lv.Enclosing {
	case 'a', 'm':
		return lv.Index
	default:
		if len(lv.Type) > 0 {
			return 1
		}
		return 0
	}
}

// PeekType returns the residual type string at the current level, "()"
// when nothing remains.
func (v *Variant) PeekType() string {
	lv := v.levels.top()
	if lv == nil || len(lv.Type) == 0 {
		return "()"
	}
	return string(lv.Type)
}

// Enter descends into a container at the current level: containers names
// the bracket chars to enter, one level per char, matching Begin's
// vocabulary ('v', 'm', 'a', '(', '{').
func (v *Variant) Enter(containers string) error {
	for i := 0; i < len(containers); i++ {
		if err := v.enterOne(containers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *Variant) enterOne(container byte) error {
	if err := v.checkNotNull("Enter"); err != nil {
		return err
	}
	lv := v.levels.top()
	if lv == nil {
		return v.poisonIfUnset(fault(Internal, "Enter"))
	}
	if len(lv.Type) == 0 || lv.Type[0] != container {
		return v.poisonIfUnset(fault(TypeMismatch, "Enter", string(container), residual(lv.Type)))
	}
	switch lv.Enclosing {
	case 'a', 'm':
		if lv.Index == 0 {
			return v.poisonIfUnset(fault(TypeMismatch, "Enter", "available element", "exhausted"))
		}
	}

	start, end, consumed, ok := v.peekSlot(lv)
	size := 0
	if ok {
		size = end - start
	}
	sum, n, perr := parseCached(v.cache, lv.Type)
	dynamic := true
	var childType []byte
	if perr == nil && n > 0 {
		dynamic = sum.Size == 0
		switch container {
		case 'm', 'a':
			childType = lv.Type[1:n]
		case '(', '{':
			childType = lv.Type[1 : n-1]
		}
	}

	nlv, err := v.levels.push()
	if err != nil {
		return v.poisonIfUnset(err)
	}
	*nlv = Level{
		Enclosing: container,
		Type:      childType,
		Size:      size,
		base:      lv.base + start,
	}

	switch container {
	case 'v':
		v.enterVariant(nlv)
	case 'm':
		v.enterMaybeOrArray(nlv, true)
	case 'a':
		v.enterMaybeOrArray(nlv, false)
	case '(', '{':
		count, cerr := countDynamicSlots(v.cache, childType)
		if cerr != nil {
			count = 0
		}
		nlv.slotCount = count
		nlv.WordSize = wordSizeForSize(size)
		nlv.Index = 1
	}

	cursorEnd := start
	if ok {
		cursorEnd = end
	}
	advanceLevel(lv, cursorEnd, dynamic, consumed)
	return nil
}

// enterVariant scans a just-entered 'v' slot's tail for the NUL byte
// separating the embedded value from its trailing type string, falling
// back to the unit type "()" if the slot is malformed (not a single span,
// no NUL found, or the trailing bytes don't parse as one complete type).
func (v *Variant) enterVariant(lv *Level) {
	data, ok := sliceAt(v.spans.Spans(), lv.base, lv.Size)
	if ok {
		for p := len(data) - 1; p >= 0; p-- {
			if data[p] != 0 {
				continue
			}
			candidate := data[p+1:]
			if _, perr := ParseType(string(candidate)); perr == nil {
				lv.Type = candidate
				lv.Index = p + 1
				return
			}
			break
		}
	}
	lv.Type = []byte("()")
	lv.Index = 1
}

// enterMaybeOrArray computes the presence/count of a 'm' or 'a' level
// just entered, per spec.md section 4.6.
func (v *Variant) enterMaybeOrArray(lv *Level, isMaybe bool) {
	sum, err := ParseType(string(lv.Type))
	childFixed := err == nil && sum.Size != 0
	lv.childFixed = childFixed
	if childFixed {
		lv.childSize = sum.Size
	}

	if isMaybe {
		switch {
		case lv.Size == 0:
			lv.Index = 0
		case childFixed:
			if lv.Size == lv.childSize {
				lv.Index = 1
			} else {
				lv.Index = 0
			}
		default:
			lv.Index = 1
		}
		return
	}

	// array
	if childFixed {
		if lv.childSize > 0 && lv.Size%lv.childSize == 0 {
			lv.Index = lv.Size / lv.childSize
		} else {
			lv.Index = 0
		}
		return
	}
	wsize := wordSizeForSize(lv.Size)
	wordBytes := 1 << uint(wsize)
	lv.WordSize = wsize
	if lv.Size < wordBytes {
		lv.Index = 0
		return
	}
	slice, ok := sliceAt(v.spans.Spans(), lv.base+lv.Size-wordBytes, wordBytes)
	if !ok {
		lv.Index = 0
		return
	}
	last := int(fetchWord(slice, wsize))
	num := lv.Size - last
	if num < 0 || last > lv.Size || wordBytes == 0 || num%wordBytes != 0 {
		lv.Index = 0
		return
	}
	lv.Index = num / wordBytes
	lv.slotCount = lv.Index
}

// Exit pops the container most recently entered with Enter, asserting it
// matches the requested bracket.
func (v *Variant) Exit(containers string) error {
	for i := len(containers) - 1; i >= 0; i-- {
		if err := v.exitOne(containers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *Variant) exitOne(container byte) error {
	if err := v.checkNotNull("Exit"); err != nil {
		return err
	}
	lv := v.levels.top()
	if lv == nil || lv.Enclosing != container || v.levels.len() <= 1 {
		return v.poisonIfUnset(fault(TypeMismatch, "Exit", string(container), "no matching open container"))
	}
	v.levels.pop()
	return nil
}

// defaultBytes returns the zero/empty wire encoding for a truncated or
// unmapped leaf, per spec.md section 6's default-value rule.
func defaultBytes(c byte) []byte {
	e, _ := elementAt(c)
	if e.fixed {
		return make([]byte, e.size)
	}
	return []byte{}
}

// readLeaf reads the next element at the current level, which must be
// the basic leaf type element. It returns the leaf's raw payload bytes
// (NUL-stripped for string-like leaves), defaulting to the zero value
// on exhaustion, truncation, or an unmapped span.
func (v *Variant) readLeaf(element byte) ([]byte, error) {
	if err := v.checkNotNull("Read"); err != nil {
		return nil, err
	}
	lv := v.levels.top()
	if lv == nil {
		return nil, v.poisonIfUnset(fault(Internal, "Read"))
	}
	if len(lv.Type) == 0 || lv.Type[0] != element {
		return nil, v.poisonIfUnset(fault(TypeMismatch, "Read", string(element), residual(lv.Type)))
	}
	if (lv.Enclosing == 'a' || lv.Enclosing == 'm') && lv.Index == 0 {
		return nil, v.poisonIfUnset(fault(TypeMismatch, "Read", "available element", "exhausted"))
	}

	e, _ := elementAt(element)
	dynamic := !e.fixed
	start, end, consumed, ok := v.peekSlot(lv)
	if !ok {
		advanceLevel(lv, start, dynamic, consumed)
		return defaultBytes(element), nil
	}
	data, dok := sliceAt(v.spans.Spans(), lv.base+start, end-start)
	advanceLevel(lv, end, dynamic, consumed)
	if !dok {
		return defaultBytes(element), nil
	}
	if element == 's' || element == 'o' || element == 'g' {
		if len(data) == 0 || data[len(data)-1] != 0 {
			return []byte{}, nil
		}
		return data[:len(data)-1], nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// ReadBool reads a boolean leaf.
func (v *Variant) ReadBool() (bool, error) {
	b, err := v.readLeaf('b')
	if err != nil {
		return false, err
	}
	return len(b) > 0 && b[0] != 0, nil
}

// ReadByte reads a single-byte leaf.
func (v *Variant) ReadByte() (byte, error) {
	b, err := v.readLeaf('y')
	if err != nil || len(b) == 0 {
		return 0, err
	}
	return b[0], nil
}

// ReadInt16 reads an int16 leaf.
func (v *Variant) ReadInt16() (int16, error) {
	b, err := v.readLeaf('n')
	if err != nil || len(b) < 2 {
		return 0, err
	}
	return int16(binary.LittleEndian.Uint16(b)), nil
}

// ReadUint16 reads a uint16 leaf.
func (v *Variant) ReadUint16() (uint16, error) {
	b, err := v.readLeaf('q')
	if err != nil || len(b) < 2 {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt32 reads an int32 leaf.
func (v *Variant) ReadInt32() (int32, error) {
	b, err := v.readLeaf('i')
	if err != nil || len(b) < 4 {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

// ReadUint32 reads a uint32 leaf.
func (v *Variant) ReadUint32() (uint32, error) {
	b, err := v.readLeaf('u')
	if err != nil || len(b) < 4 {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt64 reads an int64 leaf.
func (v *Variant) ReadInt64() (int64, error) {
	b, err := v.readLeaf('x')
	if err != nil || len(b) < 8 {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// ReadUint64 reads a uint64 leaf.
func (v *Variant) ReadUint64() (uint64, error) {
	b, err := v.readLeaf('t')
	if err != nil || len(b) < 8 {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadHandle reads a handle leaf (wire-identical to uint32).
func (v *Variant) ReadHandle() (uint32, error) {
	b, err := v.readLeaf('h')
	if err != nil || len(b) < 4 {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadFloat64 reads a double leaf.
func (v *Variant) ReadFloat64() (float64, error) {
	b, err := v.readLeaf('d')
	if err != nil || len(b) < 8 {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a string leaf.
func (v *Variant) ReadString() (string, error) {
	b, err := v.readLeaf('s')
	return string(b), err
}

// ReadObjectPath reads an object-path leaf.
func (v *Variant) ReadObjectPath() (string, error) {
	b, err := v.readLeaf('o')
	return string(b), err
}

// ReadSignature reads a signature leaf.
func (v *Variant) ReadSignature() (string, error) {
	b, err := v.readLeaf('g')
	return string(b), err
}
