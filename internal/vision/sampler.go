package vision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

type Sampler struct {
	cfg    Config
	pre    Preprocessor
	logger *slog.Logger
}

func NewSampler(cfg Config, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Sampler{
		cfg:    cfg,
		pre:    NewPreprocessor(cfg.ImageSize, cfg.JPEGQuality),
		logger: logger.With("component", "sampler"),
	}
}

func (s *Sampler) Config() Config {
	return s.cfg
}

// Sample decodes the whole video and returns up to SampleCount evenly spaced
// frames, each preprocessed for the image encoder.
func (s *Sampler) Sample(ctx context.Context, path string) ([]Frame, error) {
	raw, err := s.readVideo(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyVideo, path)
	}

	indices := SampleIndices(len(raw), s.cfg.SampleCount)
	frames := make([]Frame, 0, len(indices))
	for _, i := range indices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := s.pre.Process(raw[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frame.Index = i
		frames = append(frames, frame)
	}

	s.logger.Debug("video sampled", "path", path, "decoded", len(raw), "sampled", len(frames))
	return frames, nil
}

// Restore rebuilds tensors for frames loaded from the frame cache.
func (s *Sampler) Restore(ctx context.Context, stored []StoredFrame) ([]Frame, error) {
	frames := make([]Frame, 0, len(stored))
	for _, sf := range stored {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, err := s.pre.Restore(sf)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (s *Sampler) readVideo(ctx context.Context, path string) ([][]byte, error) {
	src, err := openSource(ctx, s.cfg, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrVideoOpen, path, err)
	}
	defer src.Close()

	var frames [][]byte
	for {
		buf, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if len(frames) == 0 {
				return nil, fmt.Errorf("%w: %s: %w", ErrVideoOpen, path, err)
			}
			s.logger.Warn("video decode stopped early", "path", path, "frames", len(frames), "error", err)
			break
		}
		if len(frames) >= s.cfg.MaxDecodedFrames {
			return nil, fmt.Errorf("%w: more than %d frames", ErrVideoTooLong, s.cfg.MaxDecodedFrames)
		}
		frames = append(frames, buf)
	}

	if skipper, ok := src.(interface{ Skipped() int }); ok && skipper.Skipped() > 0 {
		s.logger.Debug("inter frames skipped", "path", path, "skipped", skipper.Skipped())
	}
	return frames, nil
}

// SampleIndices picks k evenly spaced indices out of n, or all of them when
// n <= k.
func SampleIndices(n, k int) []int {
	if n <= 0 {
		return nil
	}
	if k <= 0 || n <= k {
		k = n
	}
	out := make([]int, k)
	for i := range out {
		out[i] = i * n / k
	}
	return out
}
