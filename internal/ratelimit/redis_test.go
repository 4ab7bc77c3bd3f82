package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisFixedWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	lim := NewRedis(rdb, "test", DefaultMax, DefaultWindow)
	ctx := context.Background()

	for i := range DefaultMax {
		d, err := lim.Admit(ctx, "origin")
		if err != nil {
			t.Fatalf("admit: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("write %d should be admitted", i+1)
		}
	}

	d, err := lim.Admit(ctx, "origin")
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if d.Allowed {
		t.Fatal("13th write within the window must be rejected")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > DefaultWindow {
		t.Fatalf("unexpected retry after %v", d.RetryAfter)
	}
	if !mr.Exists("test:origin") {
		t.Fatal("expected counter key test:origin")
	}

	mr.FastForward(DefaultWindow + time.Second)

	d, err = lim.Admit(ctx, "origin")
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if !d.Allowed {
		t.Fatal("write after window expiry should be admitted")
	}
}

func TestRedisErrorsWhenUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	lim := NewRedis(rdb, "", 1, time.Minute)
	mr.Close()

	if _, err := lim.Admit(context.Background(), "x"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
