package generation

import (
	"fmt"
	"log/slog"
)

const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

type Config struct {
	Kind   string
	Ollama OllamaConfig
	OpenAI OpenAIConfig
}

// New builds the configured backend. Device and quantization settings only
// apply to the local backend.
func New(cfg Config, spec ModelSpec, logger *slog.Logger) (Backend, error) {
	switch cfg.Kind {
	case "", KindOllama:
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		return NewOllama(cfg.Ollama, spec, logger), nil
	case KindOpenAI:
		openaiCfg := cfg.OpenAI
		if openaiCfg.Model == "" {
			openaiCfg.Model = spec.Path
		}
		return NewOpenAI(openaiCfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Kind)
	}
}
