package cache

import (
	"testing"
)

func TestKeyNormalizesURL(t *testing.T) {
	a := Key("https://Example.COM/path/", "default")
	b := Key("https://example.com/path", "default")
	if a != b {
		t.Error("host case and trailing slash should not change the key")
	}

	if Key("https://example.com", "default") == Key("https://example.com", "mixed-commerce") {
		t.Error("profile must participate in the key")
	}
	if Key("https://example.com/a", "default") == Key("https://example.com/b", "default") {
		t.Error("different paths must produce different keys")
	}
}

func TestGetRespectsMaxAge(t *testing.T) {
	c := New(10)
	key := Key("https://example.com", "default")
	c.Set(key, "scan-1")

	if id, ok := c.Get(key, 60_000); !ok || id != "scan-1" {
		t.Fatalf("Get = %q ok=%v, want hit", id, ok)
	}
	if _, ok := c.Get(key, 0); ok {
		t.Error("maxAge <= 0 must bypass the cache")
	}
	if _, ok := c.Get("unknown", 60_000); ok {
		t.Error("unknown key should miss")
	}
}

func TestSetEvictsAtCapacity(t *testing.T) {
	c := New(2)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")

	c.mu.RLock()
	n := len(c.store)
	c.mu.RUnlock()
	if n > 2 {
		t.Fatalf("cache grew to %d entries, capacity 2", n)
	}
}
