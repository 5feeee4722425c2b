package cache

import (
	"testing"
	"time"
)

func TestSetGetExpire(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	c.Set("b", 2, time.Second)

	if v, ok := c.Get("a"); !ok || v.(int) != 1 {
		t.Errorf("Expected a=1, got %v (found=%v)", v, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get("b"); ok {
		t.Error("Expected b to be expired")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("Expected a to still be cached")
	}

	c.purge()
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry after purge, got %d", c.Len())
	}
}

func TestDeleteByPrefix(t *testing.T) {
	c := New(time.Minute, 0)
	defer c.Close()

	c.Set("products:list:a", 1)
	c.Set("products:list:b", 2)
	c.Set("import:job:x", 3)

	c.DeleteByPrefix("products:list:")
	if c.Len() != 1 {
		t.Errorf("Expected only the job entry to remain, got %d entries", c.Len())
	}
	if _, ok := c.Get("import:job:x"); !ok {
		t.Error("Unrelated key should survive prefix deletion")
	}

	c.Delete("import:job:x")
	if c.Len() != 0 {
		t.Errorf("Expected empty cache, got %d", c.Len())
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(time.Minute, time.Millisecond)
	c.Close()
	c.Close()
}
