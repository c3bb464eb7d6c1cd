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

// Variant is a sealed or unsealed GVariant root value: a type string, the
// ordered byte spans backing its serialized form, a level stack tracking
// the reader/writer cursor, and a poison slot latching the first error
// that contaminated it. It plays the role ion.Bag plays for the teacher
// codec (owning a buffer plus bookkeeping plus a Reset-style lifecycle),
// generalized to GVariant's container/type model.
type Variant struct {
	typeStr string
	spans   SpanList
	levels  levelStack
	poison  *Fault
	sealed  bool

	// writer-only state
	buf []byte // the active, still-growable owned span
	pos int     // total bytes committed so far (buf plus all prior spans)

	cache *sigCache
}

// New creates an empty, unsealed writer-variant of the given root type.
func New(typeStr string) (*Variant, error) {
	sum, err := ParseType(typeStr)
	if err != nil {
		return nil, err
	}
	_ = sum
	v := &Variant{typeStr: typeStr, cache: &sigCache{}}
	root, perr := v.levels.push()
	if perr != nil {
		return nil, perr
	}
	*root = Level{Enclosing: 0, Type: []byte(v.typeStr), Size: -1}
	return v, nil
}

// NewFromSpans wraps externally-owned spans as a sealed reader-variant
// of the given root type. The spans are referenced, not copied, and
// must outlive the variant.
func NewFromSpans(typeStr string, spans SpanList) (*Variant, error) {
	sum, err := ParseType(typeStr)
	if err != nil {
		return nil, err
	}
	total, ok := spans.TotalLen()
	if !ok {
		return nil, fault(BufferTooLarge, "NewFromSpans")
	}
	v := &Variant{
		typeStr: typeStr,
		spans:   spans,
		sealed:  true,
		cache:   &sigCache{},
	}
	size := total
	if sum.Size != 0 {
		size = sum.Size
	}
	root, perr := v.levels.push()
	if perr != nil {
		return nil, perr
	}
	*root = Level{Enclosing: 0, Type: []byte(v.typeStr), Size: size}
	return v, nil
}

// Free releases a variant's owned resources. After Free the variant must
// not be used again.
func (v *Variant) Free() {
	v.spans = SpanList{}
	v.levels = levelStack{}
	v.poison = nil
	v.buf = nil
}

// IsSealed reports whether v is sealed (read-only).
func (v *Variant) IsSealed() bool { return v.sealed }

// ReturnPoison returns the first error latched on v, or nil.
func (v *Variant) ReturnPoison() error {
	if v.poison == nil {
		return nil
	}
	return v.poison
}

// GetSpans returns v's backing span list.
func (v *Variant) GetSpans() []Span {
	if v.sealed {
		return v.spans.Spans()
	}
	return v.liveSpans()
}

// TypeString returns v's root type string.
func (v *Variant) TypeString() string { return v.typeStr }

// poisonIfUnset latches err into v's poison slot if it isn't already set,
// and returns err unchanged, per spec.md section 4.8/7.
func (v *Variant) poisonIfUnset(err error) error {
	if err == nil {
		return nil
	}
	if v.poison == nil {
		if f, ok := err.(*Fault); ok {
			v.poison = f
		} else {
			v.poison = fault(Internal, "poison")
		}
	}
	return err
}
