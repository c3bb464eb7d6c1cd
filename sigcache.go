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

import "github.com/dchest/siphash"

// sigCacheCap is the number of slots in the direct-mapped cache table, and
// so the most memoized parses kept at once. A new entry whose hash lands on
// an occupied slot replaces that slot's entry, whatever its age.
const sigCacheCap = 1024

// fixed key: the cache only needs to be collision-resistant against
// itself within one process, not across processes, so a constant key is
// fine and keeps cache behavior reproducible across test runs (unlike
// hash/maphash, which reseeds per process).
const sigCacheK0, sigCacheK1 = 0x5bd1e995, 0x9e3779b9

type sigCacheEntry struct {
	key  uint64
	sig  string
	sum  TypeSummary
	n    int
	used bool
}

// sigCache memoizes parseOne results keyed by a siphash of the exact
// input signature slice passed to parseCached. Because the key is the
// full residual type string rather than just its first complete type,
// a hit requires the caller to re-present the identical residual: this
// happens on every element of an array or maybe, whose child type string
// is reused unchanged across elements, but not across a tuple/pair's
// shrinking residual, where each member sees a different (shorter) slice
// and so always misses. That is the cache's intended scope.
type sigCache struct {
	entries [sigCacheCap]sigCacheEntry
	order   []int // insertion order of occupied slots, for FIFO eviction
}

func sigHash(sig []byte) uint64 {
	return siphash.Hash(sigCacheK0, sigCacheK1, sig)
}

func (c *sigCache) get(sig []byte) (TypeSummary, int, bool) {
	h := sigHash(sig)
	slot := int(h % sigCacheCap)
	e := &c.entries[slot]
	if e.used && e.key == h && e.sig == string(sig) {
		return e.sum, e.n, true
	}
	return TypeSummary{}, 0, false
}

func (c *sigCache) put(sig []byte, sum TypeSummary, n int) {
	h := sigHash(sig)
	slot := int(h % sigCacheCap)
	e := &c.entries[slot]
	if !e.used {
		c.order = append(c.order, slot)
	}
	*e = sigCacheEntry{key: h, sig: string(sig), sum: sum, n: n, used: true}
	if len(c.order) > sigCacheCap {
		// FIFO eviction of the oldest tracked slot.
		oldest := c.order[0]
		c.order = c.order[1:]
		c.entries[oldest] = sigCacheEntry{}
	}
}

// parseCached wraps parseOne with the signature cache: a hit returns the
// stored summary without re-running the pushdown parser in signature.go.
func parseCached(c *sigCache, sig []byte) (TypeSummary, int, error) {
	if c == nil || len(sig) == 0 {
		return parseOne(sig)
	}
	if sum, n, ok := c.get(sig); ok {
		return sum, n, nil
	}
	sum, n, err := parseOne(sig)
	if err != nil {
		return sum, n, err
	}
	// Key on the same full slice get() hashes, not sig[:n]: get and put
	// must agree on what they hash or a stored entry can never be found.
	c.put(sig, sum, n)
	return sum, n, nil
}
