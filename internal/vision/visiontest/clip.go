// Package visiontest builds small video fixtures for tests.
package visiontest

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

// Frame returns a JPEG of a solid image whose color depends on i.
func Frame(t testing.TB, i, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{R: uint8(i * 7), G: uint8(255 - i*3), B: uint8(i * 13), A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode fixture frame: %v", err)
	}
	return buf.Bytes()
}

// MJPEG concatenates n frames into a buffer.
func MJPEG(t testing.TB, n, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.Write(Frame(t, i, width, height))
	}
	return buf.Bytes()
}

// WriteClip writes data under a fresh temp dir and returns its path.
func WriteClip(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture clip: %v", err)
	}
	return path
}

// WriteMJPEG writes an n frame .mjpeg clip.
func WriteMJPEG(t testing.TB, n, width, height int) string {
	t.Helper()
	return WriteClip(t, "clip.mjpeg", MJPEG(t, n, width, height))
}
