package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FrameSource yields a video's frames as JPEG buffers in decode order and
// returns io.EOF once exhausted.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

func openSource(ctx context.Context, cfg Config, path string) (FrameSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mjpeg", ".mjpg":
		return openMJPEG(path)
	case ".ivf":
		return openIVF(path, cfg.JPEGQuality)
	default:
		return openFFmpeg(ctx, cfg, path)
	}
}
