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

import "golang.org/x/sys/unix"

// SpansToIovecs converts a sealed variant's span list into []unix.Iovec
// for an external transport to writev(2)/readv(2) directly, without
// copying the underlying byte slices. This is the "host messaging layer"
// spec.md section 1 calls an external collaborator: the codec performs
// no I/O itself, it only exposes its spans in the shape a transport
// already expects.
func SpansToIovecs(spans []Span) []unix.Iovec {
	iovs := make([]unix.Iovec, len(spans))
	for i, s := range spans {
		iovs[i].SetLen(len(s.Data))
		if len(s.Data) > 0 {
			iovs[i].Base = &s.Data[0]
		}
	}
	return iovs
}

// SpansFromIovecs builds a borrowed SpanList from raw byte slices
// (e.g. the buffers an embedding caller already passed to readv(2)).
// None of the returned spans are Owned: the caller remains responsible
// for their lifetime, per spec.md's ownership rules for caller-provided
// spans.
func SpansFromIovecs(raw [][]byte) SpanList {
	spans := make([]Span, len(raw))
	for i, b := range raw {
		spans[i] = Span{Data: b, Owned: false}
	}
	return NewSpanList(spans...)
}
