package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newJSON(t *testing.T) (*JSON, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewJSON(rdb, "fanders:"), s
}

func TestJSON_SetGetDelete(t *testing.T) {
	c, s := newJSON(t)
	ctx := context.Background()

	var got item
	hit, err := c.Get(ctx, "clients:stats", &got)
	if err != nil || hit {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "clients:stats", item{Name: "active", Count: 3}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.Exists("fanders:clients:stats") {
		t.Fatalf("key not stored under prefix")
	}
	if ttl := s.TTL("fanders:clients:stats"); ttl != time.Minute {
		t.Fatalf("ttl = %s, want 1m", ttl)
	}

	hit, err = c.Get(ctx, "clients:stats", &got)
	if err != nil || !hit || got.Count != 3 || got.Name != "active" {
		t.Fatalf("Get = %+v hit=%v err=%v", got, hit, err)
	}

	if err := c.Delete(ctx, "clients:stats", "clients:options"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("fanders:clients:stats") {
		t.Fatalf("key survived Delete")
	}
}

func TestJSON_Expires(t *testing.T) {
	c, s := newJSON(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", item{Name: "x"}, time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.FastForward(2 * time.Second)

	var got item
	if hit, _ := c.Get(ctx, "k", &got); hit {
		t.Fatalf("expired key still served")
	}
}

func TestJSON_GetCorruptValue(t *testing.T) {
	c, s := newJSON(t)
	if err := s.Set("fanders:bad", "{not json"); err != nil {
		t.Fatal(err)
	}
	var got item
	if _, err := c.Get(context.Background(), "bad", &got); err == nil {
		t.Fatal("expected decode error")
	}
}
