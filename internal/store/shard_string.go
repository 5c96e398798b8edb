package store

import (
	"strconv"
	"time"
)

// stringEntry fetches key's entry, lazily expiring it, and fails
// WRONGTYPE if it exists but isn't a string. created reports whether the
// caller must still insert a fresh entry (key was absent).
func (s *Shard) stringEntry(key string) (e *entry, created bool, err error) {
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		return nil, true, nil
	}
	if e.value.Kind != KindString {
		return nil, false, ErrWrongType
	}
	return e, false, nil
}

// Append implements APPEND, returning the new length.
func (s *Shard) Append(key string, suffix []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, created, err := s.stringEntry(key)
	if err != nil {
		return 0, err
	}
	if created {
		e = &entry{value: NewString(nil)}
		s.data[key] = e
	}
	e.value.Str = append(e.value.Str, suffix...)
	s.bump(key)
	return len(e.value.Str), nil
}

// StrLen implements STRLEN.
func (s *Shard) StrLen(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, created, err := s.stringEntry(key)
	if err != nil {
		return 0, err
	}
	if created {
		return 0, nil
	}
	return len(e.value.Str), nil
}

// IncrBy implements INCR/DECR/INCRBY/DECRBY.
func (s *Shard) IncrBy(key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, created, err := s.stringEntry(key)
	if err != nil {
		return 0, err
	}
	var cur int64
	if !created {
		n, ok := IsIntString(e.value.Str)
		if !ok {
			return 0, ErrNotInteger
		}
		cur = n
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, ErrOverflow
	}
	encoded := []byte(strconv.FormatInt(next, 10))
	if created {
		s.data[key] = &entry{value: NewString(encoded)}
	} else {
		e.value.Str = encoded
	}
	s.bump(key)
	return next, nil
}

// IncrByFloat implements INCRBYFLOAT.
func (s *Shard) IncrByFloat(key string, delta float64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, created, err := s.stringEntry(key)
	if err != nil {
		return nil, err
	}
	var cur float64
	if !created {
		f, perr := strconv.ParseFloat(string(e.value.Str), 64)
		if perr != nil {
			return nil, ErrNotFloat
		}
		cur = f
	}
	next := cur + delta
	encoded := []byte(strconv.FormatFloat(next, 'f', -1, 64))
	if created {
		s.data[key] = &entry{value: NewString(encoded)}
	} else {
		e.value.Str = encoded
	}
	s.bump(key)
	return encoded, nil
}

// GetRange implements GETRANGE with Redis's negative-index clamping.
func (s *Shard) GetRange(key string, start, end int) ([]byte, error) {
	v, ok := s.Get(key)
	if !ok {
		return []byte{}, nil
	}
	if v.Kind != KindString {
		return nil, ErrWrongType
	}
	n := len(v.Str)
	start = clampRangeIndex(start, n)
	end = clampRangeIndex(end, n)
	if n == 0 || start > end || start >= n {
		return []byte{}, nil
	}
	if end >= n {
		end = n - 1
	}
	return append([]byte(nil), v.Str[start:end+1]...), nil
}

func clampRangeIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	return i
}

// SetRange implements SETRANGE, zero-padding as needed.
func (s *Shard) SetRange(key string, offset int, value []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, created, err := s.stringEntry(key)
	if err != nil {
		return 0, err
	}
	if created {
		e = &entry{value: NewString(nil)}
		s.data[key] = e
	}
	needed := offset + len(value)
	if needed > len(e.value.Str) {
		grown := make([]byte, needed)
		copy(grown, e.value.Str)
		e.value.Str = grown
	}
	copy(e.value.Str[offset:], value)
	s.bump(key)
	return len(e.value.Str), nil
}

// GetDel implements GETDEL: GET then DEL as a single shard-locked step.
func (s *Shard) GetDel(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	if e.value.Kind != KindString {
		return nil, false, ErrWrongType
	}
	val := append([]byte(nil), e.value.Str...)
	delete(s.data, key)
	delete(s.deadlines, key)
	s.bump(key)
	return val, true, nil
}
