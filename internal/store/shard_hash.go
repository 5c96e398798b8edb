package store

import (
	"strconv"
	"time"
)

func (s *Shard) hashEntry(key string, createIfAbsent bool) (e *entry, err error) {
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		if !createIfAbsent {
			return nil, nil
		}
		e = &entry{value: NewHash()}
		s.data[key] = e
		return e, nil
	}
	if e.value.Kind != KindHash {
		return nil, ErrWrongType
	}
	return e, nil
}

// HSet implements HSET, returning the number of fields newly created.
func (s *Shard) HSet(key string, fields map[string][]byte, order []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hashEntry(key, true)
	if err != nil {
		return 0, err
	}
	created := 0
	for _, f := range order {
		if e.value.HashSet(f, fields[f]) {
			created++
		}
	}
	s.bump(key)
	return created, nil
}

// HSetNX implements HSETNX.
func (s *Shard) HSetNX(key, field string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hashEntry(key, true)
	if err != nil {
		return false, err
	}
	if _, exists := e.value.HashGet(field); exists {
		return false, nil
	}
	e.value.HashSet(field, value)
	s.bump(key)
	return true, nil
}

// HGet implements HGET.
func (s *Shard) HGet(key, field string) ([]byte, bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindHash {
		return nil, false, ErrWrongType
	}
	b, exists := v.HashGet(field)
	return b, exists, nil
}

// HDel implements HDEL, returning the count of fields removed.
func (s *Shard) HDel(key string, fields ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hashEntry(key, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	n := 0
	for _, f := range fields {
		if e.value.HashDel(f) {
			n++
		}
	}
	if e.value.HashLen() == 0 {
		delete(s.data, key)
		delete(s.deadlines, key)
	}
	if n > 0 {
		s.bump(key)
	}
	return n, nil
}

// HGetAll implements HGETALL/HKEYS/HVALS by returning the hash's fields
// and values in insertion order.
func (s *Shard) HGetAll(key string) ([]string, [][]byte, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, nil, nil
	}
	if v.Kind != KindHash {
		return nil, nil, ErrWrongType
	}
	fields := v.HashFields()
	vals := make([][]byte, len(fields))
	for i, f := range fields {
		vals[i], _ = v.HashGet(f)
	}
	return fields, vals, nil
}

// HLen implements HLEN.
func (s *Shard) HLen(key string) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindHash {
		return 0, ErrWrongType
	}
	return v.HashLen(), nil
}

// HIncrBy implements HINCRBY.
func (s *Shard) HIncrBy(key, field string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hashEntry(key, true)
	if err != nil {
		return 0, err
	}
	var cur int64
	if b, ok := e.value.HashGet(field); ok {
		n, ok := IsIntString(b)
		if !ok {
			return 0, ErrNotInteger
		}
		cur = n
	}
	next := cur + delta
	e.value.HashSet(field, []byte(strconv.FormatInt(next, 10)))
	s.bump(key)
	return next, nil
}
