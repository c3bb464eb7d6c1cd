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

func TestNewVarargRejectsInvalidSignature(t *testing.T) {
	if _, err := NewVararg("z"); err == nil {
		t.Fatal("expected an error for an invalid signature")
	}
}

func TestVarargWalksBasicLeaf(t *testing.T) {
	w, err := NewVararg("u")
	if err != nil {
		t.Fatal(err)
	}
	c, err := w.Next()
	if err != nil || c != 'u' {
		t.Fatalf("got %q, %v", c, err)
	}
	if !w.Done() {
		t.Fatal("expected Done after the single element")
	}
	c, err = w.Next()
	if err != nil || c != 0 {
		t.Fatalf("expected a clean end-of-signature, got %q, %v", c, err)
	}
}

func TestVarargWalksTupleBrackets(t *testing.T) {
	w, err := NewVararg("(iu)")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{'(', 'i', 'u', ')'}
	for i, wc := range want {
		c, err := w.Next()
		if err != nil {
			t.Fatalf("at %d: %s", i, err)
		}
		if c != wc {
			t.Fatalf("at %d: got %q, want %q", i, c, wc)
		}
		if wc == '(' && w.Depth() != 1 {
			t.Fatalf("expected depth 1 right after '(', got %d", w.Depth())
		}
	}
	if w.Depth() != 0 {
		t.Fatalf("expected depth 0 after the matching ')', got %d", w.Depth())
	}
	if !w.Done() {
		t.Fatal("expected Done")
	}
}

func TestVarargWalksNestedDictEntry(t *testing.T) {
	w, err := NewVararg("a{sv}")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{'a', '{', 's', 'v', '}'}
	for i, wc := range want {
		c, err := w.Next()
		if err != nil {
			t.Fatalf("at %d: %s", i, err)
		}
		if c != wc {
			t.Fatalf("at %d: got %q, want %q", i, c, wc)
		}
	}
	if !w.Done() {
		t.Fatal("expected Done")
	}
}

func TestVarargRejectsUnterminatedBrackets(t *testing.T) {
	w := &Vararg{sig: []byte("(i")}
	for {
		c, err := w.Next()
		if err != nil {
			if f, ok := err.(*Fault); !ok || f.Code != PairShape {
				t.Fatalf("expected PairShape, got %v", err)
			}
			return
		}
		if c == 0 {
			t.Fatal("expected an error before a clean end")
		}
	}
}

func TestVarargRejectsMismatchedCloser(t *testing.T) {
	w := &Vararg{sig: []byte("(s}")}
	for i := 0; i < 2; i++ {
		if _, err := w.Next(); err != nil {
			t.Fatalf("unexpected error at step %d: %s", i, err)
		}
	}
	if _, err := w.Next(); err == nil {
		t.Fatal("expected a mismatched-closer error")
	} else if f, ok := err.(*Fault); !ok || f.Code != PairShape {
		t.Fatalf("expected PairShape, got %v", err)
	}
}
