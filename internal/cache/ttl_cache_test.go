package cache

import (
	"errors"
	"testing"
	"time"
)

func TestTTLCacheExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCacheWithClock[string, int](func() time.Time { return now })

	c.Set("methods", 3, time.Minute)
	if v, ok := c.Get("methods"); !ok || v != 3 {
		t.Fatalf("expected cached value 3, got %v %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("methods"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTTLCacheGetOrLoad(t *testing.T) {
	c := NewTTLCache[string, []string]()
	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"cod"}, nil
	}

	for i := 0; i < 3; i++ {
		if _, err := c.GetOrLoad("methods", time.Minute, load); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single load, got %d", calls)
	}
}

func TestTTLCacheDoesNotCacheErrors(t *testing.T) {
	c := NewTTLCache[string, int]()
	_, err := c.GetOrLoad("k", time.Minute, func() (int, error) { return 0, errors.New("boom") })
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected no cached entry after error")
	}
}
