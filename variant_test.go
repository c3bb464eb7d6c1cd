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
	"errors"
	"testing"
)

func TestNewUnsealedEmptyVariant(t *testing.T) {
	v, err := New("u")
	if err != nil {
		t.Fatal(err)
	}
	if v.IsSealed() {
		t.Fatal("a fresh New() variant must be unsealed")
	}
	if v.TypeString() != "u" {
		t.Fatalf("got type %q", v.TypeString())
	}
	if v.ReturnPoison() != nil {
		t.Fatal("fresh variant should carry no poison")
	}
}

func TestNewRejectsInvalidType(t *testing.T) {
	if _, err := New("z"); err == nil {
		t.Fatal("expected an error for an invalid root type")
	}
}

func TestNewFromSpansIsBornSealed(t *testing.T) {
	spans := NewSpanList(Span{Data: []byte{42, 0, 0, 0}})
	v, err := NewFromSpans("u", spans)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsSealed() {
		t.Fatal("NewFromSpans must produce a sealed variant")
	}
	got, err := v.ReadUint32()
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestNewFromSpansRejectsInvalidType(t *testing.T) {
	spans := NewSpanList(Span{Data: []byte{1}})
	if _, err := NewFromSpans("z", spans); err == nil {
		t.Fatal("expected an error for an invalid root type")
	}
}

func TestFreeClearsOwnedState(t *testing.T) {
	v, err := New("y")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(1); err != nil {
		t.Fatal(err)
	}
	v.Free()
	if len(v.GetSpans()) != 0 {
		t.Fatal("Free should release the span list")
	}
	if v.ReturnPoison() != nil {
		t.Fatal("Free should clear any latched poison")
	}
}

func TestReturnPoisonLatchesFirstError(t *testing.T) {
	v, err := New("u")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(1); err == nil {
		t.Fatal("expected a type mismatch writing a byte into a uint32 slot")
	}
	first := v.ReturnPoison()
	if first == nil {
		t.Fatal("expected the mismatch to poison the variant")
	}
	// A later operation, here a valid write, must not displace the first error.
	_ = v.WriteUint32(7)
	if v.ReturnPoison() != first {
		t.Fatal("poison must latch to the first error and stay there")
	}
	var f *Fault
	if !errors.As(first, &f) || f.Code != TypeMismatch {
		t.Fatalf("got %v, want TypeMismatch", first)
	}
}

func TestGetSpansBeforeAndAfterSeal(t *testing.T) {
	v, err := New("y")
	if err != nil {
		t.Fatal(err)
	}
	if err := v.WriteByte(9); err != nil {
		t.Fatal(err)
	}
	unsealed := v.GetSpans()
	total := 0
	for _, s := range unsealed {
		total += len(s.Data)
	}
	if total != 1 {
		t.Fatalf("got %d live bytes, want 1", total)
	}
	if err := v.Seal(); err != nil {
		t.Fatal(err)
	}
	sealed := v.GetSpans()
	total = 0
	for _, s := range sealed {
		total += len(s.Data)
	}
	if total != 1 {
		t.Fatalf("got %d sealed bytes, want 1", total)
	}
}

func TestNullVariantRejectsMutation(t *testing.T) {
	var v Variant
	if err := v.WriteByte(1); err == nil {
		t.Fatal("expected the implicit null variant to reject writes")
	} else if f, ok := err.(*Fault); !ok || f.Code != NullVariantMutation {
		t.Fatalf("expected NullVariantMutation, got %v", err)
	}
}
