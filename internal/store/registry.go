package store

import (
	"time"
)

// Registry is the fixed array of database shards plus the cross-shard
// operations (COPY ... DB, MOVE) that need more than one shard's lock.
// In this core a shard and a SELECT-able database are the same thing:
// shard n is database n, and the shard count is the database count,
// matching the spec's "Shard / Database" glossary entry.
type Registry struct {
	shards []*Shard
}

// NewRegistry builds n shards, each independently lockable.
func NewRegistry(n int) *Registry {
	r := &Registry{shards: make([]*Shard, n)}
	for i := range r.shards {
		r.shards[i] = NewShard(i)
	}
	return r
}

// Count returns the number of databases.
func (r *Registry) Count() int { return len(r.shards) }

// Shard returns database n (0-indexed). Callers must validate n first
// with Valid.
func (r *Registry) Shard(n int) *Shard { return r.shards[n] }

// Valid reports whether n is a legal database index.
func (r *Registry) Valid(n int) bool { return n >= 0 && n < len(r.shards) }

// DBSize returns the live key count of database n.
func (r *Registry) DBSize(n int) int { return r.shards[n].Len() }

// FlushAll clears every database.
func (r *Registry) FlushAll() {
	for _, s := range r.shards {
		s.FlushDB()
	}
}

// SetExpireHook installs the same eviction callback on every shard.
func (r *Registry) SetExpireHook(fn func(shardID int, key string)) {
	for _, s := range r.shards {
		s.SetExpireHook(fn)
	}
}

// CopyCross deep-copies a key from one database to another (COPY ... DB
// n). Locks are acquired in ascending shard-id order to avoid deadlock
// with a concurrent copy in the opposite direction.
func (r *Registry) CopyCross(srcDB int, srcKey string, dstDB int, dstKey string, replace bool) bool {
	if srcDB == dstDB {
		ok, _ := r.shards[srcDB].CopyWithin(srcKey, dstKey, replace)
		return ok
	}
	src := r.shards[srcDB]
	dst := r.shards[dstDB]

	first, second := src, dst
	if src.id > dst.id {
		first, second = dst, src
	}
	first.mu.Lock()
	second.mu.Lock()
	defer first.mu.Unlock()
	defer second.mu.Unlock()

	now := time.Now()
	src.lockedExpireIfDue(srcKey, now)
	srcEntry, ok := src.data[srcKey]
	if !ok {
		return false
	}
	dst.lockedExpireIfDue(dstKey, now)
	if _, exists := dst.data[dstKey]; exists && !replace {
		return false
	}
	dst.data[dstKey] = &entry{value: srcEntry.value.Clone(), deadline: srcEntry.deadline}
	if srcEntry.deadline.IsZero() {
		delete(dst.deadlines, dstKey)
	} else {
		dst.deadlines[dstKey] = srcEntry.deadline
	}
	dst.bump(dstKey)
	return true
}

// Move implements MOVE: atomically removes key from src and inserts it
// into dst, preserving TTL. Fails (false) if key doesn't exist in src or
// already exists in dst. Locks are taken in ascending shard-id order.
func (r *Registry) Move(srcDB int, dstDB int, key string) bool {
	if srcDB == dstDB {
		return false
	}
	src := r.shards[srcDB]
	dst := r.shards[dstDB]

	first, second := src, dst
	if src.id > dst.id {
		first, second = dst, src
	}
	first.mu.Lock()
	second.mu.Lock()
	defer first.mu.Unlock()
	defer second.mu.Unlock()

	now := time.Now()
	src.lockedExpireIfDue(key, now)
	dst.lockedExpireIfDue(key, now)
	srcEntry, srcOK := src.data[key]
	if !srcOK {
		return false
	}
	if _, dstOK := dst.data[key]; dstOK {
		return false
	}
	dst.data[key] = &entry{value: srcEntry.value, deadline: srcEntry.deadline}
	if !srcEntry.deadline.IsZero() {
		dst.deadlines[key] = srcEntry.deadline
	}
	delete(src.data, key)
	delete(src.deadlines, key)
	src.bump(key)
	dst.bump(key)
	return true
}

// SetUnion/SetInter/SetDiff operate on member sets already fetched from
// SMEMBERS; they live at package level rather than on Shard because
// SINTER/SUNION/SDIFF accept keys that all live within the single
// currently-selected database, but the command layer fetches them
// independently before combining.
func SetUnion(sets ...[]string) []string {
	seen := map[string]struct{}{}
	for _, s := range sets {
		for _, m := range s {
			seen[m] = struct{}{}
		}
	}
	return setKeys(seen)
}

func SetInter(sets ...[]string) []string {
	if len(sets) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, m := range sets[0] {
		counts[m] = 1
	}
	for _, s := range sets[1:] {
		present := map[string]struct{}{}
		for _, m := range s {
			present[m] = struct{}{}
		}
		for m, c := range counts {
			if _, ok := present[m]; ok {
				counts[m] = c + 1
			}
		}
	}
	out := make([]string, 0)
	for m, c := range counts {
		if c == len(sets) {
			out = append(out, m)
		}
	}
	return out
}

func SetDiff(sets ...[]string) []string {
	if len(sets) == 0 {
		return nil
	}
	base := map[string]struct{}{}
	for _, m := range sets[0] {
		base[m] = struct{}{}
	}
	for _, s := range sets[1:] {
		for _, m := range s {
			delete(base, m)
		}
	}
	return setKeys(base)
}

func setKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
