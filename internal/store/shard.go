package store

import (
	"math/rand"
	"sync"
	"time"
)

// entry is the live representation of a key: its value and optional TTL.
// The monotonic version used for WATCH dirtiness lives in the shard's
// versions map, not here, so that a deleted key's last-known version
// survives the entry being removed (see VersionOf).
type entry struct {
	value    Value
	deadline time.Time // zero means no TTL
}

func (e *entry) expired(now time.Time) bool {
	return !e.deadline.IsZero() && now.After(e.deadline)
}

// Shard is one partition of the keyspace. Every read/write takes the
// shard's single mutex; operations are brief and CPU-only so lock
// contention stays cheap (§5 of the spec).
type Shard struct {
	mu  sync.Mutex
	id  int
	rnd *rand.Rand

	data      map[string]*entry
	deadlines map[string]time.Time // subset of data carrying a TTL, for cheap active-expiry sampling

	versions   map[string]uint64 // live key version + tombstone of last-deleted version
	nextVer    uint64
	generation uint64 // bumped by FLUSHDB/FLUSHALL; dirties every watch regardless of per-key version

	onExpire func(shardID int, key string) // eviction callback installed by SetExpireHook, if any
}

// NewShard creates an empty shard with the given numeric id.
func NewShard(id int) *Shard {
	return &Shard{
		id:        id,
		rnd:       rand.New(rand.NewSource(int64(id)*2654435761 + time.Now().UnixNano())),
		data:      make(map[string]*entry),
		deadlines: make(map[string]time.Time),
		versions:  make(map[string]uint64),
	}
}

// ID returns the shard's index in its registry.
func (s *Shard) ID() int { return s.id }

// SetExpireHook installs a callback invoked (outside the shard lock) when
// Get, RandomKey or SampleExpired evicts a key for having passed its
// deadline. Keys evicted lazily inside other operations (Set, Del,
// Expire, TTL, Rename, ...) do not invoke it.
func (s *Shard) SetExpireHook(fn func(shardID int, key string)) {
	s.mu.Lock()
	s.onExpire = fn
	s.mu.Unlock()
}

func (s *Shard) bump(key string) uint64 {
	s.nextVer++
	s.versions[key] = s.nextVer
	return s.nextVer
}

// VersionOf returns the key's current version (or its tombstone version
// if it was deleted), and the shard's generation at the time of the
// call. WATCH records both; EXEC compares both.
func (s *Shard) VersionOf(key string) (version uint64, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[key], s.generation
}

// lockedExpireIfDue evicts key if its deadline has passed. Must be called
// with s.mu held. Returns true if the key was (just now) evicted.
func (s *Shard) lockedExpireIfDue(key string, now time.Time) bool {
	e, ok := s.data[key]
	if !ok || !e.expired(now) {
		return false
	}
	delete(s.data, key)
	delete(s.deadlines, key)
	s.bump(key)
	return true
}

func (s *Shard) notifyExpired(key string) {
	if s.onExpire != nil {
		s.onExpire(s.id, key)
	}
}

// Get returns the value for key, lazily evicting it first if its
// deadline has passed.
func (s *Shard) Get(key string) (Value, bool) {
	s.mu.Lock()
	evicted := s.lockedExpireIfDue(key, time.Now())
	e, ok := s.data[key]
	var v Value
	if ok {
		v = e.value
	}
	s.mu.Unlock()
	if evicted {
		s.notifyExpired(key)
	}
	return v, ok
}

// withEntry lazily evicts key if due, then calls fn with the live entry
// (nil, false if absent) without copying the value, for callers that
// need to mutate in place. Must be called with s.mu held.
func (s *Shard) withEntry(key string, fn func(e *entry, exists bool) error) error {
	now := time.Now()
	evicted := s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	err := fn(e, ok)
	_ = evicted
	return err
}

// SetPolicy describes the optional modifiers accepted by SET.
type SetPolicy struct {
	NX, XX   bool
	GetOld   bool
	KeepTTL  bool
	Persist  bool
	HasTTL   bool
	Deadline time.Time
}

// Set implements SET (and by extension SETNX/SETEX/GETSET/...). It
// returns the previous value and hadPrev=true whenever the key held a
// string (regardless of GetOld), whether the write happened, and an
// error for WRONGTYPE/syntax violations (WRONGTYPE only when GetOld is
// set and the key holds a non-string).
func (s *Shard) Set(key string, val []byte, policy SetPolicy) (prev []byte, hadPrev bool, applied bool, err error) {
	if policy.NX && policy.XX {
		return nil, false, false, ErrSyntax
	}
	if policy.KeepTTL && policy.HasTTL {
		return nil, false, false, ErrSyntax
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, exists := s.data[key]

	if policy.GetOld && exists && e.value.Kind != KindString {
		return nil, false, false, ErrWrongType
	}
	if exists && e.value.Kind == KindString {
		prev, hadPrev = append([]byte(nil), e.value.Str...), true
	}

	if policy.NX && exists {
		return prev, hadPrev, false, nil
	}
	if policy.XX && !exists {
		return prev, hadPrev, false, nil
	}

	deadline := time.Time{}
	if policy.KeepTTL && exists {
		deadline = e.deadline
	}
	if policy.HasTTL {
		deadline = policy.Deadline
	}

	s.data[key] = &entry{value: NewString(append([]byte(nil), val...)), deadline: deadline}
	if deadline.IsZero() {
		delete(s.deadlines, key)
	} else {
		s.deadlines[key] = deadline
	}
	s.bump(key)
	return prev, hadPrev, true, nil
}

// Del removes the named keys, returning the count actually removed.
func (s *Shard) Del(keys ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for _, key := range keys {
		s.lockedExpireIfDue(key, now)
		if _, ok := s.data[key]; ok {
			delete(s.data, key)
			delete(s.deadlines, key)
			s.bump(key)
			n++
		}
	}
	return n
}

// Exists reports whether key is present and unexpired.
func (s *Shard) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// TypeOf returns the key's Kind, or ok=false if absent.
func (s *Shard) TypeOf(key string) (Kind, bool) {
	v, ok := s.Get(key)
	return v.Kind, ok
}

// FlushDB removes every key in the shard and dirties every outstanding
// WATCH on it via the generation counter.
func (s *Shard) FlushDB() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*entry)
	s.deadlines = make(map[string]time.Time)
	s.generation++
}

// Len returns the number of live (non-expired) keys. Cheap best-effort:
// does not lazily evict, matching DBSIZE's read-only nature.
func (s *Shard) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for k, e := range s.data {
		if e.expired(now) {
			continue
		}
		_ = k
		n++
	}
	return n
}

// Keys returns every live key. Used by KEYS (post-filtered by the caller)
// and by tests; SCAN uses the cursor-based Scan instead.
func (s *Shard) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	out := make([]string, 0, len(s.data))
	for k, e := range s.data {
		if e.expired(now) {
			continue
		}
		out = append(out, k)
	}
	return out
}

// RandomKey returns a uniformly-sampled live key, lazily evicting any
// expired keys it happens to land on along the way (bounded attempts).
func (s *Shard) RandomKey() (string, bool) {
	var evicted []string
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		for _, k := range evicted {
			s.notifyExpired(k)
		}
	}()
	if len(s.data) == 0 {
		return "", false
	}
	now := time.Now()
	const maxAttempts = 10
	for attempt := 0; attempt < maxAttempts && len(s.data) > 0; attempt++ {
		n := s.rnd.Intn(len(s.data))
		i := 0
		for k, e := range s.data {
			if i == n {
				if e.expired(now) {
					delete(s.data, k)
					delete(s.deadlines, k)
					s.bump(k)
					evicted = append(evicted, k)
					break
				}
				return k, true
			}
			i++
		}
	}
	return "", false
}

// ExpireCondition selects the NX/XX/GT/LT condition family shared by
// EXPIRE/PEXPIRE/EXPIREAT/PEXPIREAT; Expire sets key's deadline only
// when the condition holds.
type ExpireCondition int

const (
	ExpireAlways ExpireCondition = iota
	ExpireNX
	ExpireXX
	ExpireGT
	ExpireLT
)

func (s *Shard) Expire(key string, deadline time.Time, cond ExpireCondition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		return false
	}
	hasTTL := !e.deadline.IsZero()
	switch cond {
	case ExpireNX:
		if hasTTL {
			return false
		}
	case ExpireXX:
		if !hasTTL {
			return false
		}
	case ExpireGT:
		if !hasTTL || !deadline.After(e.deadline) {
			return false
		}
	case ExpireLT:
		if hasTTL && !deadline.Before(e.deadline) {
			return false
		}
	}
	e.deadline = deadline
	s.deadlines[key] = deadline
	s.bump(key)
	return true
}

// Persist clears key's deadline, returning true if a deadline was
// removed.
func (s *Shard) Persist(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok || e.deadline.IsZero() {
		return false
	}
	e.deadline = time.Time{}
	delete(s.deadlines, key)
	s.bump(key)
	return true
}

// TTLUnit selects the resolution TTL/PTTL report in.
type TTLUnit int

const (
	TTLSeconds TTLUnit = iota
	TTLMillis
)

// TTL returns -2 if missing, -1 if persistent, else remaining time.
func (s *Shard) TTL(key string, unit TTLUnit) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		return -2
	}
	if e.deadline.IsZero() {
		return -1
	}
	remaining := e.deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	if unit == TTLMillis {
		return remaining.Milliseconds()
	}
	ms := remaining.Milliseconds()
	return (ms + 999) / 1000
}

// Rename atomically moves src to dst within the shard, carrying the TTL.
func (s *Shard) Rename(src, dst string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(src, now)
	e, ok := s.data[src]
	if !ok {
		return ErrNoSuchKey
	}
	if src == dst {
		return nil
	}
	s.lockedExpireIfDue(dst, now)
	s.data[dst] = e
	if e.deadline.IsZero() {
		delete(s.deadlines, dst)
	} else {
		s.deadlines[dst] = e.deadline
	}
	delete(s.data, src)
	delete(s.deadlines, src)
	s.bump(src)
	s.bump(dst)
	return nil
}

// RenameNX is Rename but fails (returns false, nil) if dst already
// exists.
func (s *Shard) RenameNX(src, dst string) (bool, error) {
	s.mu.Lock()
	now := time.Now()
	s.lockedExpireIfDue(src, now)
	if _, ok := s.data[src]; !ok {
		s.mu.Unlock()
		return false, ErrNoSuchKey
	}
	s.lockedExpireIfDue(dst, now)
	if _, ok := s.data[dst]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()
	return true, s.Rename(src, dst)
}

// CopyWithin deep-copies src to dst inside the same shard. replace
// controls whether an existing dst is overwritten.
func (s *Shard) CopyWithin(src, dst string, replace bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(src, now)
	srcEntry, ok := s.data[src]
	if !ok {
		return false, nil
	}
	s.lockedExpireIfDue(dst, now)
	if _, exists := s.data[dst]; exists && !replace {
		return false, nil
	}
	s.data[dst] = &entry{value: srcEntry.value.Clone(), deadline: srcEntry.deadline}
	if srcEntry.deadline.IsZero() {
		delete(s.deadlines, dst)
	} else {
		s.deadlines[dst] = srcEntry.deadline
	}
	s.bump(dst)
	return true, nil
}

// ExtractForMove removes key and returns its value and deadline, taking
// only this shard's lock. Registry.Move does not use it; it holds both
// shards' locks itself.
func (s *Shard) ExtractForMove(key string) (Value, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		return Value{}, time.Time{}, false
	}
	delete(s.data, key)
	delete(s.deadlines, key)
	s.bump(key)
	return e.value, e.deadline, true
}

// InsertIfAbsent inserts value/deadline only if key doesn't already
// exist, taking only this shard's lock.
func (s *Shard) InsertIfAbsent(key string, v Value, deadline time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	if _, ok := s.data[key]; ok {
		return false
	}
	s.data[key] = &entry{value: v, deadline: deadline}
	if !deadline.IsZero() {
		s.deadlines[key] = deadline
	}
	s.bump(key)
	return true
}

// SampleExpired is used by the active expirer: it samples up to n keys
// that carry a deadline and evicts the expired ones, reporting how many
// of the sample had expired (to decide whether to re-sample immediately).
func (s *Shard) SampleExpired(n int) (sampled, expiredCount int) {
	s.mu.Lock()
	now := time.Now()
	var toEvict []string
	for k, dl := range s.deadlines {
		if sampled >= n {
			break
		}
		sampled++
		if now.After(dl) {
			toEvict = append(toEvict, k)
		}
	}
	for _, k := range toEvict {
		delete(s.data, k)
		delete(s.deadlines, k)
		s.bump(k)
	}
	s.mu.Unlock()
	for _, k := range toEvict {
		s.notifyExpired(k)
	}
	return sampled, len(toEvict)
}
