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

import "golang.org/x/exp/slices"

// MaxSpans bounds the number of spans a single variant's buffer may hold.
const MaxSpans = 65535

// minSpanAlloc and maxSpanAlloc bound the exponential growth policy used
// when the writer's active span runs out of room: allocations start at
// 4KiB and double up to 2GiB, beyond which an exact-fit allocation is
// made instead of continuing to double.
const (
	minSpanAlloc = 4096
	maxSpanAlloc = 2 << 30
)

// Span is one contiguous byte region in a variant's scatter buffer. Owned
// spans are freed with the variant; borrowed spans are caller-owned and
// must outlive it.
type Span struct {
	Data  []byte
	Owned bool
}

// SpanList is an ordered sequence of spans backing one variant's
// serialized form.
type SpanList struct {
	spans []Span
}

// NewSpanList wraps an existing ordered slice of spans.
func NewSpanList(spans ...Span) SpanList {
	return SpanList{spans: spans}
}

// Spans returns the underlying ordered span slice.
func (l *SpanList) Spans() []Span { return l.spans }

// Len returns the number of spans.
func (l *SpanList) Len() int { return len(l.spans) }

// TotalLen returns the sum of all span lengths, or (0, false) if that
// sum overflows a machine word (spec.md's BufferTooLarge condition).
func (l *SpanList) TotalLen() (int, bool) {
	total := 0
	for _, s := range l.spans {
		n := len(s.Data)
		if n < 0 || total+n < total {
			return 0, false
		}
		total += n
	}
	return total, true
}

// append adds a span to the end of the list, failing with TooManySpans
// past MaxSpans. Implemented as the tail-position case of insertAt: a
// purely sequential writer only ever grows its span list at the end, but
// insertAt itself stays general-purpose.
func (l *SpanList) append(s Span) error {
	if len(l.spans) >= MaxSpans {
		return fault(TooManySpans, "span.append")
	}
	l.insertAt(len(l.spans), s)
	return nil
}

// insertAt splices extra spans into the list at position i using
// golang.org/x/exp/slices, the same slice-surgery helper the teacher
// uses for backing-store management (see ion/bag.go's slices.Clone).
func (l *SpanList) insertAt(i int, extra ...Span) {
	l.spans = slices.Insert(l.spans, i, extra...)
}

// locate resolves a global byte offset into the (spanIndex, intraIndex)
// pair that addresses it, returning ok=false if off is not covered by
// any span.
func locate(spans []Span, off int) (spanIdx, intraIdx int, ok bool) {
	if off < 0 {
		return 0, 0, false
	}
	base := 0
	for i, s := range spans {
		n := len(s.Data)
		if off < base+n {
			return i, off - base, true
		}
		base += n
	}
	return 0, 0, false
}

// sliceAt returns the length-byte region starting at global offset off,
// and true, only if that region lies entirely within a single span. This
// implements the wire-format extension in spec.md section 6: a value
// (or framing offset) not fully covered by one span yields the default
// value rather than being stitched together across spans, so the codec
// never has to copy or scan across span boundaries to read one element.
func sliceAt(spans []Span, off, length int) ([]byte, bool) {
	if length < 0 {
		return nil, false
	}
	spanIdx, intraIdx, ok := locate(spans, off)
	if !ok {
		if length == 0 {
			return nil, true
		}
		return nil, false
	}
	data := spans[spanIdx].Data
	if intraIdx+length > len(data) {
		return nil, false
	}
	return data[intraIdx : intraIdx+length], true
}

// growSize picks the next buffer capacity for a write buffer that
// currently holds `have` live bytes and needs room for `need` more,
// doubling from minSpanAlloc up to maxSpanAlloc before falling back to
// an exact-fit allocation.
func growSize(have, need int) int {
	want := have + need
	sz := minSpanAlloc
	for sz < want {
		if sz >= maxSpanAlloc {
			return want
		}
		sz *= 2
	}
	return sz
}
