package store

import "testing"

func TestIsIntString(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"123", true},
		{"-123", true},
		{"0", true},
		{"+1", false},
		{"01", false},
		{"-0", false},
		{"abc", false},
		{"", false},
	}
	for _, c := range cases {
		_, ok := IsIntString([]byte(c.in))
		if ok != c.ok {
			t.Errorf("IsIntString(%q) = %v, want %v", c.in, ok, c.ok)
		}
	}
}

func TestStringEncoding(t *testing.T) {
	if got := NewString([]byte("123")).StringEncoding(); got != "int" {
		t.Errorf("expected int encoding, got %s", got)
	}
	if got := NewString([]byte("hello")).StringEncoding(); got != "embstr" {
		t.Errorf("expected embstr encoding, got %s", got)
	}
	long := make([]byte, 45)
	if got := NewString(long).StringEncoding(); got != "raw" {
		t.Errorf("expected raw encoding for a 45-byte string, got %s", got)
	}
}

func TestHashSetGetDel(t *testing.T) {
	v := NewHash()
	if !v.HashSet("f1", []byte("v1")) {
		t.Fatalf("HashSet should report true for a new field")
	}
	if v.HashSet("f1", []byte("v2")) {
		t.Fatalf("HashSet should report false when overwriting")
	}
	got, ok := v.HashGet("f1")
	if !ok || string(got) != "v2" {
		t.Fatalf("HashGet returned %q, ok=%v", got, ok)
	}
	if v.HashLen() != 1 {
		t.Fatalf("expected length 1, got %d", v.HashLen())
	}
	if !v.HashDel("f1") {
		t.Fatalf("HashDel should report true for an existing field")
	}
	if v.HashDel("f1") {
		t.Fatalf("HashDel should report false once the field is gone")
	}
}

func TestHashEncodingPromotion(t *testing.T) {
	v := NewHash()
	if v.HashEncoding() != "listpack" {
		t.Fatalf("expected listpack for an empty hash")
	}
	big := make([]byte, 65)
	v.HashSet("f", big)
	if v.HashEncoding() != "hashtable" {
		t.Fatalf("expected promotion to hashtable once a value exceeds the listpack threshold")
	}
}

func TestSetAddRemHas(t *testing.T) {
	v := NewSet()
	if !v.SetAdd("a") {
		t.Fatalf("SetAdd should report true for a new member")
	}
	if v.SetAdd("a") {
		t.Fatalf("SetAdd should report false for an existing member")
	}
	if !v.SetHas("a") {
		t.Fatalf("SetHas should report true")
	}
	if !v.SetRem("a") {
		t.Fatalf("SetRem should report true for an existing member")
	}
	if v.SetHas("a") {
		t.Fatalf("member should be gone after SetRem")
	}
}

func TestSetEncodingPromotion(t *testing.T) {
	v := NewSet()
	v.SetAdd("1")
	if v.SetEncoding() != "intset" {
		t.Fatalf("expected intset for pure-integer members")
	}
	v.SetAdd("not-an-int")
	if v.SetEncoding() != "hashtable" {
		t.Fatalf("expected promotion to hashtable once a non-integer member is added")
	}
}

func TestValueCloneIsIndependent(t *testing.T) {
	v := NewHash()
	v.HashSet("f", []byte("v"))
	clone := v.Clone()
	clone.HashSet("f", []byte("changed"))
	orig, _ := v.HashGet("f")
	if string(orig) != "v" {
		t.Fatalf("mutating a clone must not affect the original, got %q", orig)
	}
}
