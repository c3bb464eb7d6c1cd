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

func TestWriteScalarThenSeal(t *testing.T) {
	v, err := New("u")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteUint32(42); err != nil {
		t.Fatal(err)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	got, err := v.ReadUint32()
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestWriteRejectsTypeMismatch(t *testing.T) {
	v, err := New("u")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(1); err == nil {
		t.Fatal("expected a type mismatch writing a byte into a uint32 slot")
	} else if f, ok := err.(*Fault); !ok || f.Code != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}

func TestWriteAfterSealFails(t *testing.T) {
	v, err := New("y")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(1); err != nil {
		t.Fatal(err)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(2); err == nil {
		t.Fatal("expected writes to a sealed variant to fail")
	}
}

func TestSealTwiceRewinds(t *testing.T) {
	v, err := New("y")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(5); err != nil {
		t.Fatal(err)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	if _, err := v.ReadByte(); err != nil {
		t.Fatal(err)
	}
	// a second Seal on an already-sealed variant behaves like Rewind.
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	got, err := v.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Fatalf("got %d, want 5 after re-sealing", got)
	}
}

func TestBeginEndFixedTupleRoundTrip(t *testing.T) {
	v, err := New("(iu)")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Begin('('); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteInt32(-1); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteUint32(7); err != nil {
		t.Fatal(err)
	}
	if err := v.End('('); err != nil {
		t.Fatal(err)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}

	if err := v.Enter("("); err != nil {
		t.Fatal(err)
	}
	a, err := v.ReadInt32()
	if err != nil {
		t.Fatal(err)
	}
	b, err := v.ReadUint32()
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Exit("("); err != nil {
		t.Fatal(err)
	}
	if a != -1 || b != 7 {
		t.Fatalf("got (%d,%d), want (-1,7)", a, b)
	}
}

func TestEndRejectsUnfinishedTuple(t *testing.T) {
	v, err := New("(iu)")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Begin('('); err != nil {
		t.Fatal(err)
	}
	if err := v.WriteInt32(1); err != nil {
		t.Fatal(err)
	}
	if err := v.End('('); err == nil {
		t.Fatal("expected End to reject a tuple with an unwritten member")
	} else if f, ok := err.(*Fault); !ok || f.Code != PairShape {
		t.Fatalf("expected PairShape, got %v", err)
	}
}

func TestInsertZeroCopyFixedLeaf(t *testing.T) {
	v, err := New("u")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Insert("u", []Span{{Data: []byte{7, 0, 0, 0}}}); err != nil {
		t.Fatal(err)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	got, err := v.ReadUint32()
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestInsertZeroCopyDynamicLeaf(t *testing.T) {
	v, err := New("s")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Insert("s", []Span{{Data: []byte("hi\x00")}}); err != nil {
		t.Fatal(err)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	got, err := v.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if got != "hi" {
		t.Fatalf("got %q, want hi", got)
	}
}

func TestInsertRejectsFixedSizeMismatch(t *testing.T) {
	v, err := New("u")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Insert("u", []Span{{Data: []byte{1, 2, 3}}}); err == nil {
		t.Fatal("expected a size mismatch error")
	} else if f, ok := err.(*Fault); !ok || f.Code != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
}
