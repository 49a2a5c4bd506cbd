package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/eleven-am/videochat/internal/vision/visiontest"
)

// fakeFFmpeg installs a shell script standing in for ffmpeg. The input path
// is the fifth argument.
func fakeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFFmpegSource_StreamsFrames(t *testing.T) {
	bin := fakeFFmpeg(t, `exec cat "$5"`)
	path := visiontest.WriteClip(t, "clip.mp4", visiontest.MJPEG(t, 45, 32, 24))

	frames, err := newTestSampler(Config{FFmpegPath: bin, ImageSize: 24}).Sample(context.Background(), path)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(frames) != 30 {
		t.Fatalf("expected 30 frames, got %d", len(frames))
	}
	if frames[1].Index != 1 || frames[29].Index != 43 {
		t.Errorf("unexpected indices: %d, %d", frames[1].Index, frames[29].Index)
	}
}

func TestFFmpegSource_Failure(t *testing.T) {
	bin := fakeFFmpeg(t, `echo "moov atom not found" >&2; exit 1`)
	path := visiontest.WriteClip(t, "broken.mp4", []byte("not a video"))

	_, err := newTestSampler(Config{FFmpegPath: bin}).Sample(context.Background(), path)
	if !errors.Is(err, ErrVideoOpen) {
		t.Fatalf("expected ErrVideoOpen, got %v", err)
	}
	if !errors.Is(err, ErrFFmpegFailed) {
		t.Errorf("expected ErrFFmpegFailed, got %v", err)
	}
}

func TestFFmpegSource_EmptyOutput(t *testing.T) {
	bin := fakeFFmpeg(t, `exit 0`)
	path := visiontest.WriteClip(t, "blank.mp4", []byte("x"))

	_, err := newTestSampler(Config{FFmpegPath: bin}).Sample(context.Background(), path)
	if !errors.Is(err, ErrEmptyVideo) {
		t.Fatalf("expected ErrEmptyVideo, got %v", err)
	}
}

func TestFFmpegSource_Timeout(t *testing.T) {
	bin := fakeFFmpeg(t, `exec sleep 5`)
	path := visiontest.WriteClip(t, "slow.mp4", []byte("x"))

	start := time.Now()
	_, err := newTestSampler(Config{FFmpegPath: bin, FFmpegTimeout: 100 * time.Millisecond}).
		Sample(context.Background(), path)
	if !errors.Is(err, ErrFFmpegTimeout) {
		t.Fatalf("expected ErrFFmpegTimeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("timeout not enforced, took %v", time.Since(start))
	}
}

func TestFFmpegSource_NotInstalled(t *testing.T) {
	path := visiontest.WriteClip(t, "clip.mp4", []byte("x"))

	_, err := newTestSampler(Config{FFmpegPath: "videochat-no-such-ffmpeg"}).Sample(context.Background(), path)
	if !errors.Is(err, ErrVideoOpen) {
		t.Fatalf("expected ErrVideoOpen, got %v", err)
	}
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}
