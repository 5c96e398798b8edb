package store

import (
	"fmt"
	"testing"
)

func TestScanFullIteration(t *testing.T) {
	s := NewShard(0)
	want := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("key-%d", i)
		s.Set(key, []byte("v"), SetPolicy{})
		want[key] = false
	}

	cursor := uint64(0)
	iterations := 0
	for {
		var keys []string
		cursor, keys = s.Scan(cursor, 10)
		for _, k := range keys {
			want[k] = true
		}
		iterations++
		if cursor == 0 {
			break
		}
		if iterations > 1000 {
			t.Fatalf("scan did not converge")
		}
	}

	for k, seen := range want {
		if !seen {
			t.Errorf("key %q was never returned by SCAN", k)
		}
	}
}

func TestScanEmptyShard(t *testing.T) {
	s := NewShard(0)
	cursor, keys := s.Scan(0, 10)
	if cursor != 0 || len(keys) != 0 {
		t.Fatalf("expected an immediate empty cursor for an empty shard, got cursor=%d keys=%v", cursor, keys)
	}
}
