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

// element describes the static, per-character properties of one byte of
// a type string. Every query against it is O(1).
type element struct {
	align byte // alignment in {1,2,4,8}; 0 for non-real/invalid characters
	size  byte // fixed wire size, equal to align, when fixed is true
	real  bool // may appear in a wire type string
	basic bool // is a leaf (non-container) type
	fixed bool // wire size is statically known (equals align)
}

var elementTable [256]element

func reg(c byte, align byte, basic, fixed bool) {
	elementTable[c] = element{
		align: align,
		size:  align,
		real:  true,
		basic: basic,
		fixed: fixed,
	}
}

func init() {
	// basic fixed-size leaves
	reg('b', 1, true, true) // boolean
	reg('y', 1, true, true) // byte
	reg('n', 2, true, true) // int16
	reg('q', 2, true, true) // uint16
	reg('i', 4, true, true) // int32
	reg('u', 4, true, true) // uint32
	reg('x', 8, true, true) // int64
	reg('t', 8, true, true) // uint64
	reg('h', 4, true, true) // handle (wire-identical to 'u'; see DESIGN.md)
	reg('d', 8, true, true) // double

	// basic variable-size leaves (NUL-terminated byte strings)
	reg('s', 1, true, false) // string
	reg('o', 1, true, false) // object path
	reg('g', 1, true, false) // signature

	// containers: real but neither basic nor fixed
	reg('v', 8, false, false) // variant recursion
	reg('m', 1, false, false) // maybe (bound container; align = child align)
	reg('a', 1, false, false) // array (bound container; align = child align)
	reg('(', 8, false, false) // tuple open
	reg(')', 8, false, false) // tuple close
	reg('{', 8, false, false) // pair open
	reg('}', 8, false, false) // pair close

	// API-only pseudo-elements: recognized, but never valid on the wire.
	for _, c := range []byte{'r', 'e', '?', '*'} {
		elementTable[c] = element{real: false}
	}
}

// elementAt returns the static record for c and whether c is a character
// the parser recognizes at all (real wire element or API-only pseudo).
func elementAt(c byte) (element, bool) {
	e := elementTable[c]
	if e.real {
		return e, true
	}
	switch c {
	case 'r', 'e', '?', '*':
		return e, true
	}
	return element{}, false
}

// isRealElement reports whether c may appear in a wire type string.
func isRealElement(c byte) bool {
	return elementTable[c].real
}
