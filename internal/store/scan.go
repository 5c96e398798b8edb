package store

import (
	"hash/fnv"
	"math/bits"
)

// Scan implements the cursor semantics of SCAN: a caller that keeps
// calling Scan with the cursor it was last handed, until a 0 cursor
// comes back, is guaranteed to see every key that was present for the
// whole iteration at least once, even as the shard mutates underneath
// it. Go's map type exposes no bucket/cursor internals to build this on
// top of, so each call rebuilds a power-of-two bucket table over a
// snapshot of the live keyspace and advances across it using the same
// reverse-binary-increment walk real dict-resizing hash tables use —
// that walk is what makes the guarantee hold across table-size changes
// between calls.
func (s *Shard) Scan(cursor uint64, count int) (nextCursor uint64, keys []string) {
	if count <= 0 {
		count = 10
	}
	all := s.Keys()
	if len(all) == 0 {
		return 0, nil
	}

	size := tableSizeFor(len(all))
	mask := uint64(size - 1)
	buckets := make([][]string, size)
	for _, k := range all {
		idx := bucketIndex(k, mask)
		buckets[idx] = append(buckets[idx], k)
	}

	cur := cursor & mask
	visited := 0
	for {
		keys = append(keys, buckets[cur]...)
		visited++
		cur = reverseIncrement(cur, mask)
		if cur == 0 {
			return 0, keys
		}
		if visited >= count {
			return cur, keys
		}
	}
}

// tableSizeFor returns the smallest power of two >= n, floored at 4 so
// tiny keyspaces still get a handful of buckets to walk.
func tableSizeFor(n int) int {
	size := 4
	for size < n {
		size <<= 1
	}
	return size
}

func bucketIndex(key string, mask uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64() & mask
}

// reverseIncrement advances cursor v by one step of the reverse-binary
// increment used to walk a hash table of size mask+1 in an order that
// stays valid whether the table has just grown or shrunk.
func reverseIncrement(v, mask uint64) uint64 {
	v |= ^mask
	v = bits.Reverse64(v)
	v++
	v = bits.Reverse64(v)
	return v
}
