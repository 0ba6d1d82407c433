package cache

import (
	"context"
	"testing"
	"time"

	"study-highlights/internal/domain"

	"github.com/alicebob/miniredis/v2"
)

func setupTestCache(t *testing.T) (*RedisContentCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := NewRedisContentCache("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("failed to create content cache: %v", err)
	}
	return c, s
}

func TestRedisContentCache_SetAndGet(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	item := &domain.ContentItem{ID: "dev-1", Kind: domain.ContentDevotion, Title: "Morning", Body: "Be still. Know."}

	if err := c.Set(ctx, "user-1", item); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok, err := c.Get(ctx, "user-1", domain.ContentDevotion, "dev-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.Body != item.Body || got.Title != item.Title {
		t.Errorf("unexpected cached item: %+v", got)
	}
}

func TestRedisContentCache_ScopedPerUser(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	item := &domain.ContentItem{ID: "lesson-1", Kind: domain.ContentLesson, Body: "Text."}
	if err := c.Set(ctx, "user-1", item); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, ok, err := c.Get(ctx, "user-2", domain.ContentLesson, "lesson-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Errorf("expected miss for a different user")
	}
}

func TestRedisContentCache_Expires(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	item := &domain.ContentItem{ID: "dev-2", Kind: domain.ContentDevotion, Body: "Rest."}
	if err := c.Set(ctx, "user-1", item); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "user-1", domain.ContentDevotion, "dev-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Errorf("expected entry to expire")
	}
}

func TestRedisContentCache_CorruptEntry(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	if err := s.Set("content:user-1:devotion:bad", "{not json"); err != nil {
		t.Fatalf("failed to seed redis: %v", err)
	}

	_, ok, err := c.Get(context.Background(), "user-1", domain.ContentDevotion, "bad")
	if err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if ok {
		t.Errorf("expected ok=false on error")
	}
}

func TestNewRedisContentCache_BadURL(t *testing.T) {
	if _, err := NewRedisContentCache("://nope", time.Minute); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}

func TestNopContentCache(t *testing.T) {
	var c domain.ContentCache = NopContentCache{}
	if err := c.Set(context.Background(), "u", &domain.ContentItem{ID: "x"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok, _ := c.Get(context.Background(), "u", domain.ContentDevotion, "x"); ok {
		t.Errorf("expected nop cache to miss")
	}
}
