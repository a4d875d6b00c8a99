package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestMemoryExpiresEntries(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewMemory(time.Minute, WithClock(clock.Now))

	_ = c.Set(ctx, "a", "value", 0)
	if got, err := c.Get(ctx, "a"); err != nil || got != "value" {
		t.Fatalf("expected cached value, got %v %v", got, err)
	}
	clock.now = clock.now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss after ttl, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, got %d", c.Len())
	}
}

func TestMemoryNegativeTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewMemory(-1, WithClock(clock.Now))
	_ = c.Set(ctx, "a", 1, 0)
	clock.now = clock.now.Add(24 * time.Hour)
	if _, err := c.Get(ctx, "a"); err != nil {
		t.Fatalf("expected entry to persist, got %v", err)
	}
}

func TestInvalidatePageDropsAllVariants(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)
	_ = c.Set(ctx, PageKey("lv/test", "view"), "a", 0)
	_ = c.Set(ctx, PageKey("lv/test", "admin"), "b", 0)
	_ = c.Set(ctx, PageKey("lv/test-2", "view"), "c", 0)

	if err := InvalidatePage(ctx, c, "/lv/test/"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := c.Get(ctx, PageKey("lv/test", "view")); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected view variant to be dropped")
	}
	if _, err := c.Get(ctx, PageKey("lv/test", "admin")); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected admin variant to be dropped")
	}
	if got, err := c.Get(ctx, PageKey("lv/test-2", "view")); err != nil || got != "c" {
		t.Fatalf("expected sibling path to survive, got %v %v", got, err)
	}
}
