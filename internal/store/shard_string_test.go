package store

import (
	"errors"
	"testing"
)

func TestIncrByAndOverflow(t *testing.T) {
	s := NewShard(0)
	n, err := s.IncrBy("counter", 5)
	if err != nil || n != 5 {
		t.Fatalf("IncrBy on absent key: n=%d err=%v", n, err)
	}
	n, err = s.IncrBy("counter", -2)
	if err != nil || n != 3 {
		t.Fatalf("IncrBy decrement: n=%d err=%v", n, err)
	}
	s.Set("counter", []byte("9223372036854775807"), SetPolicy{})
	if _, err := s.IncrBy("counter", 1); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestIncrByWrongType(t *testing.T) {
	s := NewShard(0)
	s.Push("list", true, []byte("x"))
	if _, err := s.IncrBy("list", 1); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestAppendAndStrLen(t *testing.T) {
	s := NewShard(0)
	n, err := s.Append("k", []byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Append on absent key: n=%d err=%v", n, err)
	}
	n, err = s.Append("k", []byte(" world"))
	if err != nil || n != 11 {
		t.Fatalf("Append on existing key: n=%d err=%v", n, err)
	}
	n, err = s.StrLen("k")
	if err != nil || n != 11 {
		t.Fatalf("StrLen: n=%d err=%v", n, err)
	}
}

func TestGetRange(t *testing.T) {
	s := NewShard(0)
	s.Set("k", []byte("Hello World"), SetPolicy{})
	got, err := s.GetRange("k", 0, 4)
	if err != nil || string(got) != "Hello" {
		t.Fatalf("GetRange(0,4) = %q, err=%v", got, err)
	}
	got, err = s.GetRange("k", -5, -1)
	if err != nil || string(got) != "World" {
		t.Fatalf("GetRange(-5,-1) = %q, err=%v", got, err)
	}
}

func TestSetRangeZeroPads(t *testing.T) {
	s := NewShard(0)
	n, err := s.SetRange("k", 5, []byte("hello"))
	if err != nil || n != 10 {
		t.Fatalf("SetRange: n=%d err=%v", n, err)
	}
	got, _ := s.GetRange("k", 0, -1)
	want := "\x00\x00\x00\x00\x00hello"
	if string(got) != want {
		t.Fatalf("SetRange result = %q, want %q", got, want)
	}
}

func TestGetDel(t *testing.T) {
	s := NewShard(0)
	s.Set("k", []byte("v"), SetPolicy{})
	val, ok, err := s.GetDel("k")
	if err != nil || !ok || string(val) != "v" {
		t.Fatalf("GetDel: val=%q ok=%v err=%v", val, ok, err)
	}
	if s.Exists("k") {
		t.Fatalf("GetDel should remove the key")
	}
}

func TestIncrByFloat(t *testing.T) {
	s := NewShard(0)
	got, err := s.IncrByFloat("k", 1.5)
	if err != nil || string(got) != "1.5" {
		t.Fatalf("IncrByFloat on absent key: got=%q err=%v", got, err)
	}
	got, err = s.IncrByFloat("k", 2.25)
	if err != nil || string(got) != "3.75" {
		t.Fatalf("IncrByFloat accumulate: got=%q err=%v", got, err)
	}
}
