package store

import (
	"errors"
	"testing"
)

func TestHSetHGetHDel(t *testing.T) {
	s := NewShard(0)
	n, err := s.HSet("h", map[string][]byte{"f1": []byte("v1"), "f2": []byte("v2")}, []string{"f1", "f2"})
	if err != nil || n != 2 {
		t.Fatalf("HSet: n=%d err=%v", n, err)
	}
	val, ok, err := s.HGet("h", "f1")
	if err != nil || !ok || string(val) != "v1" {
		t.Fatalf("HGet: val=%q ok=%v err=%v", val, ok, err)
	}
	removed, err := s.HDel("h", "f1", "missing")
	if err != nil || removed != 1 {
		t.Fatalf("HDel: removed=%d err=%v", removed, err)
	}
}

func TestHSetNX(t *testing.T) {
	s := NewShard(0)
	ok, err := s.HSetNX("h", "f", []byte("v1"))
	if err != nil || !ok {
		t.Fatalf("HSetNX on new field: ok=%v err=%v", ok, err)
	}
	ok, err = s.HSetNX("h", "f", []byte("v2"))
	if err != nil || ok {
		t.Fatalf("HSetNX should fail on an existing field")
	}
	val, _, _ := s.HGet("h", "f")
	if string(val) != "v1" {
		t.Fatalf("HSetNX must not overwrite, got %q", val)
	}
}

func TestHIncrBy(t *testing.T) {
	s := NewShard(0)
	n, err := s.HIncrBy("h", "f", 5)
	if err != nil || n != 5 {
		t.Fatalf("HIncrBy on absent field: n=%d err=%v", n, err)
	}
	n, err = s.HIncrBy("h", "f", -2)
	if err != nil || n != 3 {
		t.Fatalf("HIncrBy accumulate: n=%d err=%v", n, err)
	}
}

func TestHashDeletesKeyWhenEmpty(t *testing.T) {
	s := NewShard(0)
	s.HSet("h", map[string][]byte{"f": []byte("v")}, []string{"f"})
	s.HDel("h", "f")
	if s.Exists("h") {
		t.Fatalf("hash key should be removed once its last field is deleted")
	}
}

func TestHashWrongType(t *testing.T) {
	s := NewShard(0)
	s.Set("k", []byte("v"), SetPolicy{})
	if _, err := s.HSet("k", map[string][]byte{"f": []byte("v")}, []string{"f"}); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}
