package images

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, time.Minute), mr
}

func TestCache_GetSetDelete(t *testing.T) {
	cache, mr := newTestCache(t)
	t.Cleanup(func() { _ = cache.Close() })
	ctx := context.Background()

	if _, found, err := cache.Get(ctx, 1); err != nil || found {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}

	if err := cache.Set(ctx, 1, []byte("bytes")); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if !mr.Exists("catalog:image:1") {
		t.Fatalf("expected key catalog:image:1 to exist")
	}
	if ttl := mr.TTL("catalog:image:1"); ttl != time.Minute {
		t.Errorf("expected ttl of one minute, got %v", ttl)
	}

	data, found, err := cache.Get(ctx, 1)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if string(data) != "bytes" {
		t.Errorf("expected %q, got %q", "bytes", data)
	}

	if err := cache.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if mr.Exists("catalog:image:1") {
		t.Fatalf("expected key to be removed")
	}
}

func TestStore_Open_UsesCache(t *testing.T) {
	cache, mr := newTestCache(t)
	store := NewStore(t.TempDir(), cache)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	data := encode(t, png.Encode)
	writeImage(t, store, 3, data)

	img, err := store.Open(ctx, 3)
	if err != nil {
		t.Fatalf("first Open error: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Errorf("expected image/png, got %q", img.ContentType)
	}
	if got := readAll(t, img); !bytes.Equal(got, data) {
		t.Fatalf("first Open returned different bytes")
	}

	// cached bytes win over a file rewritten in place
	writeImage(t, store, 3, []byte("replacement"))
	img, err = store.Open(ctx, 3)
	if err != nil {
		t.Fatalf("cached Open error: %v", err)
	}
	if got := readAll(t, img); !bytes.Equal(got, data) {
		t.Fatalf("cached Open returned different bytes")
	}

	store.Forget(ctx, 3)
	if mr.Exists("catalog:image:3") {
		t.Fatalf("expected Forget to evict the cached image")
	}
	img, err = store.Open(ctx, 3)
	if err != nil {
		t.Fatalf("Open after eviction error: %v", err)
	}
	if got := readAll(t, img); string(got) != "replacement" {
		t.Fatalf("expected bytes from disk after eviction, got %q", got)
	}
}

func TestStore_Open_RemovedFileIsNotServedFromCache(t *testing.T) {
	cache, mr := newTestCache(t)
	store := NewStore(t.TempDir(), cache)
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	writeImage(t, store, 4, encode(t, png.Encode))
	img, err := store.Open(ctx, 4)
	if err != nil {
		t.Fatalf("first Open error: %v", err)
	}
	_ = readAll(t, img)
	if !mr.Exists("catalog:image:4") {
		t.Fatalf("expected first Open to fill the cache")
	}

	if err := os.Remove(store.ImagePath(4)); err != nil {
		t.Fatalf("failed to remove image: %v", err)
	}
	if _, err := store.Open(ctx, 4); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound once the file is gone, got %v", err)
	}
}

func TestStore_Open_CacheOutageFallsBackToDisk(t *testing.T) {
	cache, mr := newTestCache(t)
	store := NewStore(t.TempDir(), cache)
	t.Cleanup(func() { _ = store.Close() })

	data := encode(t, png.Encode)
	writeImage(t, store, 8, data)
	mr.Close()

	img, err := store.Open(context.Background(), 8)
	if err != nil {
		t.Fatalf("Open error with redis down: %v", err)
	}
	if got := readAll(t, img); !bytes.Equal(got, data) {
		t.Fatalf("expected bytes from disk")
	}
}
