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

// writePos returns the total number of bytes written to v so far: all
// previously committed spans plus whatever is staged in the active buf.
// This plays the role of ion/writer.go's Buffer.Size() for a writer whose
// backing store may already have been spliced into multiple spans by
// Insert.
func (v *Variant) writePos() int { return v.pos + len(v.buf) }

// ensureCap grows v.buf's capacity for `extra` more bytes, following the
// 4KiB-to-2GiB doubling policy in growSize.
func (v *Variant) ensureCap(extra int) {
	if cap(v.buf)-len(v.buf) >= extra {
		return
	}
	newCap := growSize(len(v.buf), extra)
	nb := make([]byte, len(v.buf), newCap)
	copy(nb, v.buf)
	v.buf = nb
}

func (v *Variant) appendBytes(b []byte) {
	v.ensureCap(len(b))
	v.buf = append(v.buf, b...)
}

func (v *Variant) appendZeros(n int) {
	if n <= 0 {
		return
	}
	v.ensureCap(n)
	for i := 0; i < n; i++ {
		v.buf = append(v.buf, 0)
	}
}

// commitBuf finalizes the active buf as a committed, owned span, the way
// Insert's zero-copy splice needs a clean boundary to splice into. It is
// a no-op if nothing has been written since the last commit.
func (v *Variant) commitBuf() {
	if len(v.buf) == 0 {
		return
	}
	v.spans.append(Span{Data: v.buf, Owned: true})
	v.pos += len(v.buf)
	v.buf = nil
}

// liveSpans returns the spans backing an unsealed (still-writing) variant:
// everything already committed, plus the active buf as a final span. It
// exists purely for introspection (GetSpans before Seal); Seal itself
// calls commitBuf directly.
func (v *Variant) liveSpans() []Span {
	committed := v.spans.Spans()
	spans := make([]Span, len(committed), len(committed)+1)
	copy(spans, committed)
	if len(v.buf) > 0 {
		spans = append(spans, Span{Data: v.buf, Owned: true})
	}
	return spans
}

// checkNotNull rejects use of the implicit null variant. A variant that
// already carries poison stays usable: later operations still run, and
// only the first error stays latched (see poisonIfUnset).
func (v *Variant) checkNotNull(op string) error {
	if v.typeStr == "" && v.levels.len() == 0 {
		return v.poisonIfUnset(fault(NullVariantMutation, op))
	}
	return nil
}

// writeLeaf appends one basic-leaf value of type leafChar at the current
// level, padding to align first, then performs the same per-container
// bookkeeping recordChild does for a just-closed nested container.
func (v *Variant) writeLeaf(leafChar byte, raw []byte, align int, dynamic bool) error {
	if err := v.checkNotNull("Write"); err != nil {
		return err
	}
	if v.sealed {
		return v.poisonIfUnset(fault(NullVariantMutation, "Write", "unsealed variant", "sealed"))
	}
	lv := v.levels.top()
	if lv == nil {
		return v.poisonIfUnset(fault(Internal, "Write"))
	}
	if len(lv.Type) == 0 || lv.Type[0] != leafChar {
		return v.poisonIfUnset(fault(TypeMismatch, "Write", string(leafChar), residual(lv.Type)))
	}
	if lv.Enclosing == 'm' && lv.Index != 0 {
		return v.poisonIfUnset(fault(TypeMismatch, "Write", "empty maybe slot", "already written"))
	}
	if lv.Enclosing == 'v' && lv.Index != 0 {
		return v.poisonIfUnset(fault(TypeMismatch, "Write", "empty variant slot", "already written"))
	}

	pad := alignUp(v.writePos(), align) - v.writePos()
	v.appendZeros(pad)
	v.appendBytes(raw)

	v.recordChild(lv, dynamic, 1)
	return nil
}

// residual renders a level's residual type for error messages, defaulting
// to "()" when empty (spec.md's convention for "nothing left to read").
func residual(t []byte) string {
	if len(t) == 0 {
		return "()"
	}
	return string(t)
}

// recordChild updates lv after one of its children (a leaf, just written,
// or a nested container, just closed by End/Insert) completes: it
// consumes consumedChars from the residual type (tuples, pairs, and the
// root; arrays and maybes repeat the same child type forever) and records
// a framing-table entry when the child was dynamic-sized.
func (v *Variant) recordChild(lv *Level, dynamic bool, consumedChars int) {
	end := v.writePos() - lv.base
	switch lv.Enclosing {
	case '(', '{':
		if consumedChars <= len(lv.Type) {
			lv.Type = lv.Type[consumedChars:]
		}
		if dynamic {
			lv.pending = append(lv.pending, end)
			lv.Index++
		}
		lv.lastWasDynamic = dynamic
	case 'a':
		if dynamic {
			lv.pending = append(lv.pending, end)
		}
		lv.Index++
	case 'm':
		lv.Index = 1
		lv.lastWasDynamic = dynamic
	case 'v':
		lv.Index = 1
		lv.lastWasDynamic = dynamic
	default: // root
		if consumedChars <= len(lv.Type) {
			lv.Type = lv.Type[consumedChars:]
		}
		lv.Index++
	}
}

// WriteBool appends a boolean leaf.
func (v *Variant) WriteBool(b bool) error {
	x := byte(0)
	if b {
		x = 1
	}
	return v.writeLeaf('b', []byte{x}, 1, false)
}

// WriteByte appends a single-byte leaf.
func (v *Variant) WriteByte(b byte) error {
	return v.writeLeaf('y', []byte{b}, 1, false)
}

// WriteInt16 appends an int16 leaf.
func (v *Variant) WriteInt16(n int16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(n))
	return v.writeLeaf('n', buf, 2, false)
}

// WriteUint16 appends a uint16 leaf.
func (v *Variant) WriteUint16(n uint16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, n)
	return v.writeLeaf('q', buf, 2, false)
}

// WriteInt32 appends an int32 leaf.
func (v *Variant) WriteInt32(n int32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(n))
	return v.writeLeaf('i', buf, 4, false)
}

// WriteUint32 appends a uint32 leaf.
func (v *Variant) WriteUint32(n uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, n)
	return v.writeLeaf('u', buf, 4, false)
}

// WriteInt64 appends an int64 leaf.
func (v *Variant) WriteInt64(n int64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	return v.writeLeaf('x', buf, 8, false)
}

// WriteUint64 appends a uint64 leaf.
func (v *Variant) WriteUint64(n uint64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, n)
	return v.writeLeaf('t', buf, 8, false)
}

// WriteHandle appends a handle leaf (wire-identical to uint32; see
// DESIGN.md).
func (v *Variant) WriteHandle(h uint32) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, h)
	return v.writeLeaf('h', buf, 4, false)
}

// WriteFloat64 appends a double leaf.
func (v *Variant) WriteFloat64(f float64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
	return v.writeLeaf('d', buf, 8, false)
}

// WriteString appends a string leaf (NUL-terminated on the wire).
func (v *Variant) WriteString(s string) error {
	return v.writeLeaf('s', append([]byte(s), 0), 1, true)
}

// WriteObjectPath appends an object-path leaf.
func (v *Variant) WriteObjectPath(s string) error {
	return v.writeLeaf('o', append([]byte(s), 0), 1, true)
}

// WriteSignature appends a signature leaf.
func (v *Variant) WriteSignature(s string) error {
	return v.writeLeaf('g', append([]byte(s), 0), 1, true)
}

// Begin opens a container at the current level: container must be one of
// 'v', 'm', 'a', '(', '{'. variantType supplies the inner type string when
// container is 'v' (GVariant builds a variant's inner type dynamically at
// write time, unlike m/a/tuple/pair, whose child types are fixed by the
// enclosing signature).
func (v *Variant) Begin(container byte, variantType ...string) error {
	if err := v.checkNotNull("Begin"); err != nil {
		return err
	}
	if v.sealed {
		return v.poisonIfUnset(fault(NullVariantMutation, "Begin", "unsealed variant", "sealed"))
	}
	lv := v.levels.top()
	if lv == nil {
		return v.poisonIfUnset(fault(Internal, "Begin"))
	}
	if len(lv.Type) == 0 || lv.Type[0] != container {
		return v.poisonIfUnset(fault(TypeMismatch, "Begin", string(container), residual(lv.Type)))
	}
	if lv.Enclosing == 'm' && lv.Index != 0 {
		return v.poisonIfUnset(fault(TypeMismatch, "Begin", "empty maybe slot", "already written"))
	}
	if lv.Enclosing == 'v' && lv.Index != 0 {
		return v.poisonIfUnset(fault(TypeMismatch, "Begin", "empty variant slot", "already written"))
	}

	var childType []byte
	var dynamicContainer bool
	var inner []byte
	var consumedLen int
	var align int

	switch container {
	case 'v':
		if len(variantType) == 0 {
			return v.poisonIfUnset(fault(InvalidType, "Begin", "inner type string"))
		}
		sum, err := ParseType(variantType[0])
		if err != nil {
			return v.poisonIfUnset(err)
		}
		_ = sum
		inner = []byte(variantType[0])
		childType = inner
		dynamicContainer = true
		consumedLen = 1
		align = 8
	case 'm', 'a':
		sum, n, err := parseCached(v.cache, lv.Type)
		if err != nil {
			return v.poisonIfUnset(err)
		}
		childType = lv.Type[1:n]
		dynamicContainer = sum.Size == 0 // always true for m/a, kept explicit for clarity
		consumedLen = n
		align = sum.Align
	case '(', '{':
		sum, n, err := parseCached(v.cache, lv.Type)
		if err != nil {
			return v.poisonIfUnset(err)
		}
		childType = lv.Type[1 : n-1]
		dynamicContainer = sum.Size == 0
		consumedLen = n
		align = sum.Align
	default:
		return v.poisonIfUnset(fault(InvalidType, "Begin", "v, m, a, ( or {", string(container)))
	}

	// The container starts at its own alignment, where the reader's
	// peekSlot looks for it.
	v.appendZeros(alignUp(v.writePos(), align) - v.writePos())

	nlv, err := v.levels.push()
	if err != nil {
		return v.poisonIfUnset(err)
	}
	*nlv = Level{
		Enclosing:        container,
		Type:             childType,
		Size:             -1,
		base:             v.writePos(),
		innerType:        inner,
		dynamicContainer: dynamicContainer,
		consumedLen:      consumedLen,
	}
	if container == '{' {
		nlv.Index = 0 // counts dynamic children written so far, as for '('
	}
	return nil
}

// End closes the container most recently opened with Begin, emitting its
// trailing NUL marker ('m', 'v') or framing-offset table ('a', '(', '{')
// and folding its completion into the parent level.
func (v *Variant) End(container byte) error {
	if err := v.checkNotNull("End"); err != nil {
		return err
	}
	lv := v.levels.top()
	if lv == nil || lv.Enclosing != container || v.levels.len() <= 1 {
		return v.poisonIfUnset(fault(TypeMismatch, "End", string(container), "no matching open container"))
	}
	if (container == '(' || container == '{') && len(lv.Type) != 0 {
		return v.poisonIfUnset(fault(PairShape, "End", "all elements written", residual(lv.Type)))
	}

	switch container {
	case 'v':
		if lv.Index != 1 {
			return v.poisonIfUnset(fault(PairShape, "End", "exactly one variant value", "none written"))
		}
		v.appendBytes(append([]byte{0}, lv.innerType...))
	case 'm':
		if lv.Index == 1 && lv.lastWasDynamic {
			v.appendBytes([]byte{0})
		}
	case 'a', '(', '{':
		pending := lv.pending
		if (container == '(' || container == '{') && lv.lastWasDynamic && len(pending) > 0 {
			pending = pending[:len(pending)-1]
		}
		contentLen := v.writePos() - lv.base
		wsize := wordSizeFor(contentLen, len(pending))
		lv.WordSize = wsize
		if len(pending) > 0 {
			// An array's Index counts down from the element count, so its
			// j-from-the-tail reads walk write order 0,1,2,...: slot idx
			// holds pending[idx] directly. A tuple/pair's Index counts up
			// from 1 as dynamic children are processed, which walks the
			// same from-the-tail addressing in the opposite direction, so
			// its slots hold pending in reverse. See framing.go's
			// nthFramingOffsetFromTail and reader.go's peekSlot.
			wordBytes := 1 << uint(wsize)
			table := make([]byte, len(pending)*wordBytes)
			for idx, off := range pending {
				memIdx := idx
				if container != 'a' {
					memIdx = len(pending) - 1 - idx
				}
				storeWord(table[memIdx*wordBytes:], wsize, uint64(off))
			}
			v.appendBytes(table)
		}
	}

	lv.Size = v.writePos() - lv.base
	size := lv.Size
	dynamicContainer := lv.dynamicContainer
	consumedLen := lv.consumedLen
	v.levels.pop()

	parent := v.levels.top()
	if parent == nil {
		return v.poisonIfUnset(fault(Internal, "End"))
	}
	if !dynamicContainer {
		// A fixed-size tuple or pair is padded out to the fixed size the
		// parser reports for its type.
		if sum, _, err := parseCached(v.cache, parent.Type); err == nil && sum.Size > size {
			v.appendZeros(sum.Size - size)
		}
	}
	v.recordChild(parent, dynamicContainer, consumedLen)
	return nil
}

// Insert splices caller-owned spans into the buffer as a single atomic
// element of the given type, without copying: the active buf is committed
// and the spans are appended directly to the span list. typeStr must
// match the next expected type exactly, and if that type is fixed-size
// the combined span length must equal it.
func (v *Variant) Insert(typeStr string, spans []Span) error {
	if err := v.checkNotNull("Insert"); err != nil {
		return err
	}
	lv := v.levels.top()
	if lv == nil {
		return v.poisonIfUnset(fault(Internal, "Insert"))
	}
	n := len(typeStr)
	if len(lv.Type) < n || string(lv.Type[:n]) != typeStr {
		return v.poisonIfUnset(fault(TypeMismatch, "Insert", typeStr, residual(lv.Type)))
	}
	if (lv.Enclosing == 'm' || lv.Enclosing == 'v') && lv.Index != 0 {
		return v.poisonIfUnset(fault(TypeMismatch, "Insert", "empty slot", "already written"))
	}
	sum, err := ParseType(typeStr)
	if err != nil {
		return v.poisonIfUnset(err)
	}
	total := 0
	for _, s := range spans {
		total += len(s.Data)
	}
	if sum.Size != 0 && total != sum.Size {
		return v.poisonIfUnset(fault(TypeMismatch, "Insert", "exact fixed size", "mismatched span length"))
	}

	v.commitBuf()
	for _, s := range spans {
		if err := v.spans.append(s); err != nil {
			return v.poisonIfUnset(err)
		}
		v.pos += len(s.Data)
	}

	v.recordChild(lv, sum.Size == 0, n)
	return nil
}

// Seal closes any containers still open (innermost first) and fixes the
// variant's final span list, turning it into a sealed reader. Sealing an
// already-sealed variant is a no-op equivalent to Rewind.
func (v *Variant) Seal() error {
	if v.sealed {
		return v.Rewind()
	}
	if err := v.checkNotNull("Seal"); err != nil {
		return err
	}
	for v.levels.len() > 1 {
		lv := v.levels.top()
		if err := v.End(lv.Enclosing); err != nil {
			return err
		}
	}
	v.commitBuf()
	total, ok := v.spans.TotalLen()
	if !ok {
		return v.poisonIfUnset(fault(BufferTooLarge, "Seal"))
	}
	v.sealed = true
	v.levels.reset()
	root, err := v.levels.push()
	if err != nil {
		return v.poisonIfUnset(err)
	}
	*root = Level{Enclosing: 0, Type: []byte(v.typeStr), Size: total}
	return nil
}
