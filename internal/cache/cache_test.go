//go:build unit

package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_SetGetDelete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "sitemap", []byte("<urlset/>"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := c.Get(ctx, "sitemap")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte("<urlset/>")) {
		t.Errorf("expected cached value, got %q", got)
	}

	if err := c.Delete(ctx, "sitemap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = c.Get(ctx, "sitemap")
	if err != nil || got != nil {
		t.Errorf("expected a miss after delete, got %q (err %v)", got, err)
	}
}

func TestCache_Expiry(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired entry to be a miss, got %q", got)
	}
}

func TestCache_Remember(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	build := func(context.Context) ([]byte, error) {
		calls++
		return []byte("built"), nil
	}

	for i := 0; i < 3; i++ {
		got, err := c.Remember(ctx, "doc", time.Hour, build)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "built" {
			t.Errorf("expected %q, got %q", "built", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected build to run once, ran %d times", calls)
	}

	wantErr := errors.New("boom")
	_, err := c.Remember(ctx, "other", time.Hour, func(context.Context) ([]byte, error) { return nil, wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("expected build error to propagate, got %v", err)
	}
}

func TestCache_Purge(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("a"), time.Second)
	_ = c.Set(ctx, "long", []byte("b"), time.Hour)

	now = now.Add(time.Minute)
	n, err := c.Purge(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged entry, got %d", n)
	}
}
