package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "audit:x", []byte(`{"score":71}`), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "audit:x")
	if err != nil || !hit {
		t.Fatalf("Get = hit %v err %v", hit, err)
	}
	if string(data) != `{"score":71}` {
		t.Errorf("data = %s", data)
	}

	if err := c.Delete(ctx, "audit:x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "audit:x"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "audit:x"); err != nil {
		t.Errorf("deleting a missing key: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Fatal("fresh entry missed")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry hit")
	}
}

func TestFileCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit %v err %v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry not removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("Clear() removed %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	ctx := context.Background()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRedisCacheClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "")
	defer rc.client.Close()

	for name, c := range map[string]Cache{"file": fc, "redis": rc} {
		if _, _, err := c.Get(ctx, ""); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("%s Get(\"\") = %v", name, err)
		}
		if err := c.Set(ctx, "", nil, 0); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("%s Set(\"\") = %v", name, err)
		}
		if err := c.Delete(ctx, ""); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("%s Delete(\"\") = %v", name, err)
		}
	}
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("NewRedisCache succeeded against a closed port")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	type result struct{ Score int }

	var got result
	if hit, err := GetJSON(ctx, c, "audit", "k", &got); hit || err != nil {
		t.Fatalf("GetJSON on empty cache: hit %v err %v", hit, err)
	}
	if err := SetJSON(ctx, c, "audit", "k", result{Score: 88}, 0); err != nil {
		t.Fatal(err)
	}
	if hit, err := GetJSON(ctx, c, "audit", "k", &got); !hit || err != nil {
		t.Fatalf("GetJSON: hit %v err %v", hit, err)
	}
	if got.Score != 88 {
		t.Errorf("Score = %d", got.Score)
	}

	if err := c.Set(ctx, "bad", []byte("[1,2"), 0); err != nil {
		t.Fatal(err)
	}
	if hit, _ := GetJSON(ctx, c, "audit", "bad", &got); hit {
		t.Error("undecodable entry reported as hit")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	a1 := k.AuditKey("m", "Coffee  roaster\nselling beans")
	a2 := k.AuditKey("m", "coffee roaster selling beans")
	if a1 != a2 {
		t.Error("AuditKey should ignore case and whitespace differences")
	}
	if a1 == k.AuditKey("other-model", "coffee roaster selling beans") {
		t.Error("AuditKey should depend on the model")
	}
	if !strings.HasPrefix(a1, "audit:") {
		t.Errorf("AuditKey = %q", a1)
	}

	s1 := k.SnapshotKey(SnapshotKeyOpts{Width: 1200, Seed: 1})
	s2 := k.SnapshotKey(SnapshotKeyOpts{Width: 1200, Seed: 2})
	if s1 == s2 {
		t.Error("Different SnapshotKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")
	key := scoped.AuditKey("m", "x")
	if !strings.HasPrefix(key, "user:123:audit:") {
		t.Errorf("ScopedKeyer AuditKey should be prefixed: %s", key)
	}

	// nil inner falls back to DefaultKeyer
	if got := NewScopedKeyer(nil, "p:").SnapshotKey(SnapshotKeyOpts{}); !strings.HasPrefix(got, "p:snapshot:") {
		t.Errorf("Unexpected key with nil inner: %s", got)
	}
}
