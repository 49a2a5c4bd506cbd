package chat

import "errors"

var (
	ErrPromptImageMismatch = errors.New("image placeholders do not match frames")
	ErrGeneration          = errors.New("generation failed")
)
