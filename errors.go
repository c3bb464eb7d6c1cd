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

import "fmt"

// Code identifies the cause of a codec Fault.
type Code int

const (
	// InvalidType marks an unrecognized element or bracket mismatch
	// in a type string.
	InvalidType Code = iota + 1
	// NestingTooDeep marks a signature exceeding MaxDepth.
	NestingTooDeep
	// SignatureTooLong marks a signature exceeding MaxSignature.
	SignatureTooLong
	// PairShape marks a dictionary entry with a non-basic or missing/
	// duplicate key, or the wrong number of children.
	PairShape
	// TypeMismatch marks a requested element that disagrees with the
	// residual type, an exhausted container, or a mismatched bracket.
	TypeMismatch
	// BufferTooLarge marks a span list whose summed length does not
	// fit in a machine word.
	BufferTooLarge
	// OutOfMemory marks an allocation failure.
	OutOfMemory
	// TooManySpans marks a span count that would exceed MaxSpans.
	TooManySpans
	// NullVariantMutation marks an attempt to mutate the implicit
	// null variant.
	NullVariantMutation
	// Internal marks an invariant violation. Reported, never expected.
	Internal
)

func (c Code) String() string {
	switch c {
	case InvalidType:
		return "InvalidType"
	case NestingTooDeep:
		return "NestingTooDeep"
	case SignatureTooLong:
		return "SignatureTooLong"
	case PairShape:
		return "PairShape"
	case TypeMismatch:
		return "TypeMismatch"
	case BufferTooLarge:
		return "BufferTooLarge"
	case OutOfMemory:
		return "OutOfMemory"
	case TooManySpans:
		return "TooManySpans"
	case NullVariantMutation:
		return "NullVariantMutation"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Fault is the error type returned by every public operation in this
// package. It mirrors ion.TypeError's shape: a code plus the contextual
// fields that explain it.
type Fault struct {
	Code Code
	Op   string // operation that failed, e.g. "Enter", "Read"
	Want string // what was expected, when applicable
	Got  string // what was found instead, when applicable
}

func (f *Fault) Error() string {
	switch {
	case f.Want != "" && f.Got != "":
		return fmt.Sprintf("govariant: %s: %s: want %s, got %s", f.Op, f.Code, f.Want, f.Got)
	case f.Want != "":
		return fmt.Sprintf("govariant: %s: %s: %s", f.Op, f.Code, f.Want)
	default:
		return fmt.Sprintf("govariant: %s: %s", f.Op, f.Code)
	}
}

// Is supports errors.Is(err, SomeCode)-style comparisons by way of a
// sentinel wrapper; see CodeError.
func (f *Fault) Is(target error) bool {
	other, ok := target.(*Fault)
	if !ok {
		return false
	}
	return f.Code == other.Code
}

// fault builds a *Fault for code, identifying op, with optional want/got
// context (at most one pair is used).
func fault(code Code, op string, wantGot ...string) *Fault {
	f := &Fault{Code: code, Op: op}
	if len(wantGot) > 0 {
		f.Want = wantGot[0]
	}
	if len(wantGot) > 1 {
		f.Got = wantGot[1]
	}
	return f
}

// CodeError returns a sentinel *Fault usable with errors.Is to test
// whether an error carries a particular Code, regardless of context.
func CodeError(c Code) error { return &Fault{Code: c} }
