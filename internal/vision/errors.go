package vision

import "errors"

var (
	ErrVideoOpen        = errors.New("video could not be opened")
	ErrEmptyVideo       = errors.New("video has no decodable frames")
	ErrVideoTooLong     = errors.New("video exceeds decoded frame limit")
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrInvalidJPEG      = errors.New("invalid jpeg stream")
	ErrInterFrame       = errors.New("not a key frame")
	ErrClipNotFound     = errors.New("clip frames not found")

	ErrFFmpegNotFound = errors.New("ffmpeg not found")
	ErrFFmpegFailed   = errors.New("ffmpeg execution failed")
	ErrFFmpegTimeout  = errors.New("ffmpeg execution timeout")
)
