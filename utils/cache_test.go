package utils

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return mr
}

func TestCacheSetGetBytes(t *testing.T) {
	setupMiniredis(t)

	CacheSetBytes("k1", []byte("payload"), time.Minute)
	got, ok := CacheGetBytes("k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != "payload" {
		t.Fatalf("got %q", got)
	}

	if _, ok := CacheGetBytes("missing"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestCacheSetJSON(t *testing.T) {
	setupMiniredis(t)

	CacheSetJSON("k2", map[string]int{"total": 7}, time.Minute)
	got, ok := CacheGetBytes("k2")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got) != `{"total":7}` {
		t.Fatalf("got %q", got)
	}
}

func TestInvalidateByPrefix(t *testing.T) {
	setupMiniredis(t)

	CacheSetBytes("cache:user:1:verifications:page=1", []byte("a"), time.Minute)
	CacheSetBytes("cache:user:1:verifications:page=2", []byte("b"), time.Minute)
	CacheSetBytes("cache:user:2:verifications:page=1", []byte("c"), time.Minute)

	InvalidateByPrefix("cache:user:1:verifications:")

	if _, ok := CacheGetBytes("cache:user:1:verifications:page=1"); ok {
		t.Fatal("prefix key should have been invalidated")
	}
	if _, ok := CacheGetBytes("cache:user:2:verifications:page=1"); !ok {
		t.Fatal("unrelated key should survive")
	}
}
