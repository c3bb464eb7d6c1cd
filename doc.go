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

// Package govariant implements the GVariant binary serialization format:
// a typed, self-describing, little-endian wire format built around a
// short textual type signature and a byte layout fully determined by
// that signature, with dynamic sizing carried in trailing framing
// offsets.
//
// A Variant is either an unsealed writer, built up with Begin/Write/End
// and finished with Seal, or a sealed reader wrapping caller-owned spans,
// navigated with Enter/Read/Exit. Both share a single level stack and a
// scatter buffer of byte spans; nothing here performs I/O.
package govariant
