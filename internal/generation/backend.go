package generation

import (
	"context"

	"github.com/eleven-am/videochat/internal/conversation"
)

const (
	DefaultMaxNewTokens = 128
	DefaultTemperature  = 0
)

// Backend runs a multimodal model. Implementations are safe for concurrent
// use once Load has returned.
type Backend interface {
	Name() string
	Load(ctx context.Context) (ModelInfo, error)
	Generate(ctx context.Context, req Request) (string, error)
	Ping(ctx context.Context) error
}

// Request is consumed by exactly one Generate call. Prompt is the fully
// templated prompt with one image placeholder per entry in Images; Messages
// is the same exchange for chat style APIs.
type Request struct {
	Prompt   string
	Messages []conversation.Message
	Images   [][]byte
	Stop     []string
	Options  Options
}

type Options struct {
	MaxNewTokens int
	Temperature  float64
	UseCache     bool
	NumCtx       int
}

func DefaultOptions() Options {
	return Options{
		MaxNewTokens: DefaultMaxNewTokens,
		Temperature:  DefaultTemperature,
		UseCache:     true,
	}
}

type ModelInfo struct {
	Backend       string `json:"backend"`
	Name          string `json:"name"`
	Ref           string `json:"ref"`
	Family        string `json:"family,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
	Quantization  string `json:"quantization,omitempty"`
}
