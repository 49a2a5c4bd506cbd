package generation

import "errors"

var (
	ErrConflictingQuantization = errors.New("8-bit and 4-bit loading are mutually exclusive")
	ErrBaseModelRequired       = errors.New("model requires a base model")
	ErrModelNotFound           = errors.New("model not found")
	ErrUnsupportedDevice       = errors.New("unsupported device")
	ErrUnknownBackend          = errors.New("unknown model backend")
	ErrBackendStatus           = errors.New("model backend returned an error")
	ErrEmptyCompletion         = errors.New("model returned no completion")
	ErrInvalidModel            = errors.New("invalid model spec")
)
