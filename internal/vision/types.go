package vision

import "time"

const (
	DefaultSampleCount      = 30
	DefaultImageSize        = 336
	DefaultMaxDecodedFrames = 18000
	DefaultJPEGQuality      = 90
	DefaultFFmpegPath       = "ffmpeg"
	DefaultFFmpegTimeout    = 5 * time.Minute
)

type Config struct {
	SampleCount      int
	ImageSize        int
	MaxDecodedFrames int
	JPEGQuality      int
	FFmpegPath       string
	FFmpegTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleCount <= 0 {
		c.SampleCount = DefaultSampleCount
	}
	if c.ImageSize <= 0 {
		c.ImageSize = DefaultImageSize
	}
	if c.MaxDecodedFrames <= 0 {
		c.MaxDecodedFrames = DefaultMaxDecodedFrames
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = DefaultFFmpegPath
	}
	if c.FFmpegTimeout <= 0 {
		c.FFmpegTimeout = DefaultFFmpegTimeout
	}
	return c
}

// Tensor is a channel-major float image: Shape is [channels, height, width].
type Tensor struct {
	Shape [3]int
	Data  []float32
}

func (t Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Shape[1]+y)*t.Shape[2]+x]
}

// Frame is one sampled video frame. Image holds the JPEG of the encoder-sized
// crop that Pixels was computed from.
type Frame struct {
	Index  int
	Image  []byte
	Width  int
	Height int
	Pixels Tensor
}

// StoredFrame is the cached form of a Frame, without its tensor.
type StoredFrame struct {
	Index int
	Image []byte
}
