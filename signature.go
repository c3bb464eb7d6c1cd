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

// MaxDepth is the maximum container nesting depth a signature may reach.
const MaxDepth = 255

// MaxSignature is the maximum number of characters in a signature
// accepted by the parser.
const MaxSignature = 65535

// TypeSummary describes one parsed type: its alignment, its fixed size
// if known (else 0), the fixed size of its bound child if any (for m/a;
// else 0), its maximum nesting depth, and the number of characters of
// the input it consumed.
type TypeSummary struct {
	Align     int
	Size      int
	BoundSize int
	Depth     int
	Len       int
}

// frame is one open container on the parser's pushdown stack.
type frame struct {
	kind      byte // 'm', 'a', '(', '{'
	align     int  // max alignment of children seen so far
	size      int  // accumulated size assuming fixed so far
	dynamic   bool // true once any child turned out dynamic-sized
	pairState int  // '{' only: 0=expect key, 1=expect value, 2=done
}

func alignUp(off, align int) int {
	return (off + align - 1) &^ (align - 1)
}

// parseOne parses the single next complete type in sig and returns its
// summary plus the number of characters consumed. It returns 0 consumed
// characters iff sig is empty.
func parseOne(sig []byte) (TypeSummary, int, error) {
	if len(sig) == 0 {
		return TypeSummary{}, 0, nil
	}
	if len(sig) > MaxSignature {
		return TypeSummary{}, 0, fault(SignatureTooLong, "parseOne")
	}

	var stack []frame
	maxDepth := 0
	i := 0

	// completeType folds a just-finished type (align, size, basic,
	// dynamic) into the enclosing frame, bubbling through any bound
	// containers (m/a) that it implicitly closes. It returns the final
	// summary and true once the stack empties (the whole type is done).
	var completeType func(align, size int, basic, dynamic bool) (TypeSummary, bool, error)
	completeType = func(align, size int, basic, dynamic bool) (TypeSummary, bool, error) {
		boundSize := 0
		curAlign, curSize, curDynamic, curBasic := align, size, dynamic, basic
		for {
			if len(stack) == 0 {
				sz := curSize
				if curDynamic {
					sz = 0
				}
				return TypeSummary{
					Align:     curAlign,
					Size:      sz,
					BoundSize: boundSize,
					Depth:     maxDepth,
					Len:       i,
				}, true, nil
			}
			top := &stack[len(stack)-1]
			switch top.kind {
			case 'm', 'a':
				if curDynamic {
					boundSize = 0
				} else {
					boundSize = curSize
				}
				stack = stack[:len(stack)-1]
				curAlign = align
				curSize = 0
				curDynamic = true // m/a are always dynamic-sized themselves
				curBasic = false  // wrapped in a container, no longer a leaf
				continue
			case '(':
				if curAlign > top.align {
					top.align = curAlign
				}
				if !top.dynamic {
					if curDynamic {
						top.dynamic = true
					} else {
						top.size = alignUp(top.size, curAlign) + curSize
					}
				}
				return TypeSummary{}, false, nil
			case '{':
				switch top.pairState {
				case 0:
					if !curBasic {
						return TypeSummary{}, false, fault(PairShape, "parseOne", "basic key")
					}
					top.align = curAlign
					top.dynamic = curDynamic
					top.size = curSize
					top.pairState = 1
					return TypeSummary{}, false, nil
				case 1:
					if curAlign > top.align {
						top.align = curAlign
					}
					if top.dynamic || curDynamic {
						top.dynamic = true
					} else {
						top.size = alignUp(top.size, curAlign) + curSize
					}
					top.pairState = 2
					return TypeSummary{}, false, nil
				default:
					return TypeSummary{}, false, fault(PairShape, "parseOne", "exactly two children")
				}
			default:
				return TypeSummary{}, false, fault(Internal, "parseOne")
			}
		}
	}

	push := func(kind byte) error {
		if len(stack) >= MaxDepth {
			return fault(NestingTooDeep, "parseOne")
		}
		stack = append(stack, frame{kind: kind, align: 1})
		if len(stack) > maxDepth {
			maxDepth = len(stack)
		}
		return nil
	}

	for i < len(sig) {
		c := sig[i]
		e, known := elementAt(c)
		if !known || !e.real {
			return TypeSummary{}, 0, fault(InvalidType, "parseOne", "real element", string(c))
		}
		switch c {
		case 'm', 'a':
			if err := push(c); err != nil {
				return TypeSummary{}, 0, err
			}
			i++
		case '(':
			if err := push('('); err != nil {
				return TypeSummary{}, 0, err
			}
			i++
			if i < len(sig) && sig[i] == ')' {
				// empty tuple: the unit type, fixed size 1.
				stack = stack[:len(stack)-1]
				i++
				sum, done, err := completeType(1, 1, false, false)
				if err != nil {
					return TypeSummary{}, 0, err
				}
				if done {
					return sum, sum.Len, nil
				}
			}
		case '{':
			if err := push('{'); err != nil {
				return TypeSummary{}, 0, err
			}
			i++
		case ')':
			if len(stack) == 0 || stack[len(stack)-1].kind != '(' {
				return TypeSummary{}, 0, fault(InvalidType, "parseOne", "matching '('")
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
			align := top.align
			size := 0
			dynamic := top.dynamic
			if !dynamic {
				size = alignUp(top.size, align)
			}
			sum, done, err := completeType(align, size, false, dynamic)
			if err != nil {
				return TypeSummary{}, 0, err
			}
			if done {
				return sum, sum.Len, nil
			}
		case '}':
			if len(stack) == 0 || stack[len(stack)-1].kind != '{' {
				return TypeSummary{}, 0, fault(InvalidType, "parseOne", "matching '{'")
			}
			if stack[len(stack)-1].pairState != 2 {
				return TypeSummary{}, 0, fault(PairShape, "parseOne", "exactly two children")
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			i++
			align := top.align
			size := 0
			dynamic := top.dynamic
			if !dynamic {
				size = alignUp(top.size, align)
			}
			sum, done, err := completeType(align, size, false, dynamic)
			if err != nil {
				return TypeSummary{}, 0, err
			}
			if done {
				return sum, sum.Len, nil
			}
		case 'v':
			i++
			sum, done, err := completeType(8, 0, false, true)
			if err != nil {
				return TypeSummary{}, 0, err
			}
			if done {
				return sum, sum.Len, nil
			}
		default:
			// basic leaf
			i++
			align := int(e.align)
			size := int(e.size)
			dynamic := !e.fixed
			sum, done, err := completeType(align, size, true, dynamic)
			if err != nil {
				return TypeSummary{}, 0, err
			}
			if done {
				return sum, sum.Len, nil
			}
		}
	}
	return TypeSummary{}, 0, fault(InvalidType, "parseOne", "complete type", "unterminated")
}

// ParseType parses sig as exactly one complete type, failing if any
// characters remain afterward.
func ParseType(sig string) (TypeSummary, error) {
	b := []byte(sig)
	sum, n, err := parseOne(b)
	if err != nil {
		return TypeSummary{}, err
	}
	if n != len(b) {
		return TypeSummary{}, fault(InvalidType, "ParseType", "single complete type", "trailing characters")
	}
	return sum, nil
}
