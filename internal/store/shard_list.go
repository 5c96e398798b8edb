package store

import "time"

func (s *Shard) listEntry(key string, createIfAbsent bool) (e *entry, err error) {
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		if !createIfAbsent {
			return nil, nil
		}
		e = &entry{value: NewList()}
		s.data[key] = e
		return e, nil
	}
	if e.value.Kind != KindList {
		return nil, ErrWrongType
	}
	return e, nil
}

// Push implements LPUSH/RPUSH. left selects head vs tail insertion.
func (s *Shard) Push(key string, left bool, values ...[]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.listEntry(key, true)
	if err != nil {
		return 0, err
	}
	for _, v := range values {
		item := append([]byte(nil), v...)
		if left {
			e.value.List = append([][]byte{item}, e.value.List...)
		} else {
			e.value.List = append(e.value.List, item)
		}
	}
	s.bump(key)
	return len(e.value.List), nil
}

// Pop implements LPOP/RPOP with an optional COUNT.
func (s *Shard) Pop(key string, left bool, count int) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.listEntry(key, false)
	if err != nil {
		return nil, err
	}
	if e == nil || len(e.value.List) == 0 {
		return nil, nil
	}
	if count > len(e.value.List) {
		count = len(e.value.List)
	}
	var out [][]byte
	if left {
		out = e.value.List[:count]
		e.value.List = e.value.List[count:]
	} else {
		n := len(e.value.List)
		out = e.value.List[n-count:]
		e.value.List = e.value.List[:n-count]
		out = reverseBytes(out)
	}
	if len(e.value.List) == 0 {
		delete(s.data, key)
		delete(s.deadlines, key)
	}
	s.bump(key)
	return out, nil
}

func reverseBytes(in [][]byte) [][]byte {
	out := make([][]byte, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// ListLen implements LLEN.
func (s *Shard) ListLen(key string) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindList {
		return 0, ErrWrongType
	}
	return len(v.List), nil
}

// normalizeIndex converts a possibly-negative logical index into a
// bounds-checked slice offset, or -1 if out of range.
func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return -1
	}
	return i
}

// Range implements LRANGE.
func (s *Shard) Range(key string, start, stop int) ([][]byte, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindList {
		return nil, ErrWrongType
	}
	n := len(v.List)
	if n == 0 {
		return nil, nil
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return nil, nil
	}
	out := make([][]byte, stop-start+1)
	copy(out, v.List[start:stop+1])
	return out, nil
}

// Index implements LINDEX.
func (s *Shard) Index(key string, idx int) ([]byte, bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindList {
		return nil, false, ErrWrongType
	}
	i := normalizeIndex(idx, len(v.List))
	if i < 0 {
		return nil, false, nil
	}
	return v.List[i], true, nil
}

// SetAt implements LSET.
func (s *Shard) SetAt(key string, idx int, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.listEntry(key, false)
	if err != nil {
		return err
	}
	if e == nil {
		return ErrNoSuchKey
	}
	i := normalizeIndex(idx, len(e.value.List))
	if i < 0 {
		return ErrSyntax // caller maps to "ERR index out of range"
	}
	e.value.List[i] = append([]byte(nil), value...)
	s.bump(key)
	return nil
}

// Insert implements LINSERT BEFORE|AFTER. Returns the new length, or -1
// if the pivot wasn't found, or 0 if the key doesn't exist.
func (s *Shard) Insert(key string, before bool, pivot, value []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.listEntry(key, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	idx := -1
	for i, item := range e.value.List {
		if string(item) == string(pivot) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1, nil
	}
	insertAt := idx
	if !before {
		insertAt = idx + 1
	}
	list := e.value.List
	list = append(list, nil)
	copy(list[insertAt+1:], list[insertAt:])
	list[insertAt] = append([]byte(nil), value...)
	e.value.List = list
	s.bump(key)
	return len(list), nil
}

// Trim implements LTRIM.
func (s *Shard) Trim(key string, start, stop int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.listEntry(key, false)
	if err != nil {
		return err
	}
	if e == nil {
		return nil
	}
	n := len(e.value.List)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		e.value.List = nil
	} else {
		kept := make([][]byte, stop-start+1)
		copy(kept, e.value.List[start:stop+1])
		e.value.List = kept
	}
	if len(e.value.List) == 0 {
		delete(s.data, key)
		delete(s.deadlines, key)
	}
	s.bump(key)
	return nil
}

// Rem implements LREM. count>0 removes from head, count<0 from tail,
// count==0 removes all occurrences.
func (s *Shard) Rem(key string, count int, value []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.listEntry(key, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	removed := 0
	list := e.value.List
	match := func(b []byte) bool { return string(b) == string(value) }

	switch {
	case count >= 0:
		limit := count
		out := list[:0:0]
		for _, item := range list {
			if (limit == 0 || removed < limit) && match(item) {
				removed++
				continue
			}
			out = append(out, item)
		}
		e.value.List = out
	default:
		limit := -count
		out := make([][]byte, 0, len(list))
		for i := len(list) - 1; i >= 0; i-- {
			if removed < limit && match(list[i]) {
				removed++
				continue
			}
			out = append(out, list[i])
		}
		for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
			out[l], out[r] = out[r], out[l]
		}
		e.value.List = out
	}
	if len(e.value.List) == 0 {
		delete(s.data, key)
		delete(s.deadlines, key)
	}
	if removed > 0 {
		s.bump(key)
	}
	return removed, nil
}
