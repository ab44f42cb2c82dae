// internal/cache/lru_test.go
//
// Run: go test ./internal/cache -v

package cache

import "testing"

func TestLRU_EvictsLeastRecent(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes MRU
		t.Fatal("a missing")
	}
	if evicted := c.Add("c", 3); !evicted {
		t.Fatal("expected eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
}

func TestLRU_Prune(t *testing.T) {
	c := New[string, int](10)
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Add(k, i)
	}
	n := c.Prune(func(_ string, v int) bool { return v%2 == 0 })
	if n != 2 || c.Len() != 2 {
		t.Fatalf("pruned %d, len %d", n, c.Len())
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatal("b should survive")
	}
}
