package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"sync"
	"time"
)

type ffmpegSource struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cmd     *exec.Cmd
	stderr  bytes.Buffer
	scanner *jpegScanner

	waitOnce sync.Once
	waitErr  error
}

// openFFmpeg decodes any container ffmpeg understands by transcoding it to
// an MJPEG stream on stdout.
func openFFmpeg(ctx context.Context, cfg Config, path string) (*ffmpegSource, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.FFmpegTimeout)

	args := []string{
		"-nostdin",
		"-v", "error",
		"-i", path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	}

	s := &ffmpegSource{ctx: ctx, cancel: cancel}
	s.cmd = exec.CommandContext(ctx, cfg.FFmpegPath, args...)
	s.cmd.Stderr = &s.stderr
	s.cmd.WaitDelay = time.Second

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := s.cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegPath)
		}
		return nil, err
	}

	s.scanner = newJPEGScanner(stdout)
	return s, nil
}

func (s *ffmpegSource) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.scanner.Next()
	if err == nil {
		return frame, nil
	}
	if waitErr := s.wait(); waitErr != nil {
		return nil, waitErr
	}
	return nil, err
}

func (s *ffmpegSource) wait() error {
	s.waitOnce.Do(func() {
		err := s.cmd.Wait()
		switch {
		case errors.Is(s.ctx.Err(), context.DeadlineExceeded):
			s.waitErr = ErrFFmpegTimeout
		case s.ctx.Err() != nil:
			s.waitErr = s.ctx.Err()
		case err != nil:
			s.waitErr = fmt.Errorf("%w: %s", ErrFFmpegFailed, strings.TrimSpace(s.stderr.String()))
		}
	})
	return s.waitErr
}

// Close stops the decoder if it is still running and reaps it.
func (s *ffmpegSource) Close() error {
	s.cancel()
	s.wait()
	return nil
}
