package vision

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })
	return NewStore(redisClient, ttl), mr
}

func TestNewStore_DefaultTTL(t *testing.T) {
	store := NewStore(redis.NewClient(&redis.Options{}), 0)
	if store.frameTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %v", store.frameTTL)
	}
}

func TestStore_StoreAndGetFrames(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	same := []byte{0xFF, 0xD8, ':', 0x00, 0xFF, 0xD9}
	frames := []Frame{
		{Index: 0, Image: same},
		{Index: 3, Image: same},
		{Index: 6, Image: []byte("other")},
	}
	if err := store.StoreFrames(ctx, "clip_1", frames); err != nil {
		t.Fatalf("StoreFrames failed: %v", err)
	}

	got, err := store.GetFrames(ctx, "clip_1")
	if err != nil {
		t.Fatalf("GetFrames failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(got))
	}
	for i, f := range got {
		if f.Index != frames[i].Index {
			t.Errorf("frame %d: expected index %d, got %d", i, frames[i].Index, f.Index)
		}
		if !bytes.Equal(f.Image, frames[i].Image) {
			t.Errorf("frame %d: image bytes differ", i)
		}
	}

	if ttl := mr.TTL(clipKey("clip_1")); ttl != time.Hour {
		t.Errorf("expected TTL 1h, got %v", ttl)
	}
}

func TestStore_StoreFramesReplaces(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	_ = store.StoreFrames(ctx, "clip_1", []Frame{{Index: 0, Image: []byte("a")}, {Index: 1, Image: []byte("b")}})
	_ = store.StoreFrames(ctx, "clip_1", []Frame{{Index: 9, Image: []byte("c")}})

	got, err := store.GetFrames(ctx, "clip_1")
	if err != nil {
		t.Fatalf("GetFrames failed: %v", err)
	}
	if len(got) != 1 || got[0].Index != 9 {
		t.Errorf("expected only the replacement frame, got %+v", got)
	}
}

func TestStore_RejectsEmpty(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	if err := store.StoreFrames(context.Background(), "clip_1", nil); err == nil {
		t.Error("expected error storing no frames")
	}
}

func TestStore_MissingAndDeleted(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	if _, err := store.GetFrames(ctx, "nope"); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("expected ErrClipNotFound, got %v", err)
	}

	_ = store.StoreFrames(ctx, "clip_1", []Frame{{Index: 0, Image: []byte("a")}})
	if err := store.DeleteFrames(ctx, "clip_1"); err != nil {
		t.Fatalf("DeleteFrames failed: %v", err)
	}
	if _, err := store.GetFrames(ctx, "clip_1"); !errors.Is(err, ErrClipNotFound) {
		t.Errorf("expected ErrClipNotFound after delete, got %v", err)
	}
}

func TestStore_TouchExtendsTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	_ = store.StoreFrames(ctx, "clip_1", []Frame{{Index: 0, Image: []byte("a")}})
	mr.FastForward(30 * time.Minute)

	if err := store.Touch(ctx, "clip_1"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if ttl := mr.TTL(clipKey("clip_1")); ttl != time.Hour {
		t.Errorf("expected TTL reset to 1h, got %v", ttl)
	}
}
