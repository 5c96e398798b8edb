package store

import "time"

func (s *Shard) setEntry(key string, createIfAbsent bool) (e *entry, err error) {
	now := time.Now()
	s.lockedExpireIfDue(key, now)
	e, ok := s.data[key]
	if !ok {
		if !createIfAbsent {
			return nil, nil
		}
		e = &entry{value: NewSet()}
		s.data[key] = e
		return e, nil
	}
	if e.value.Kind != KindSet {
		return nil, ErrWrongType
	}
	return e, nil
}

// SAdd implements SADD, returning the count of members newly added.
func (s *Shard) SAdd(key string, members ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.setEntry(key, true)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if e.value.SetAdd(m) {
			n++
		}
	}
	if n > 0 {
		s.bump(key)
	}
	return n, nil
}

// SRem implements SREM, returning the count of members removed.
func (s *Shard) SRem(key string, members ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.setEntry(key, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	n := 0
	for _, m := range members {
		if e.value.SetRem(m) {
			n++
		}
	}
	if e.value.SetLen() == 0 {
		delete(s.data, key)
		delete(s.deadlines, key)
	}
	if n > 0 {
		s.bump(key)
	}
	return n, nil
}

// SMembers implements SMEMBERS.
func (s *Shard) SMembers(key string) ([]string, error) {
	v, ok := s.Get(key)
	if !ok {
		return nil, nil
	}
	if v.Kind != KindSet {
		return nil, ErrWrongType
	}
	return v.SetMembers(), nil
}

// SIsMember implements SISMEMBER.
func (s *Shard) SIsMember(key, member string) (bool, error) {
	v, ok := s.Get(key)
	if !ok {
		return false, nil
	}
	if v.Kind != KindSet {
		return false, ErrWrongType
	}
	return v.SetHas(member), nil
}

// SCard implements SCARD.
func (s *Shard) SCard(key string) (int, error) {
	v, ok := s.Get(key)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindSet {
		return 0, ErrWrongType
	}
	return v.SetLen(), nil
}
