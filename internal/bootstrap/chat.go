package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eleven-am/videochat/internal/chat"
	"github.com/eleven-am/videochat/internal/conversation"
	"github.com/eleven-am/videochat/internal/generation"
	"github.com/eleven-am/videochat/internal/metrics"
	"github.com/eleven-am/videochat/internal/session"
	"github.com/eleven-am/videochat/internal/transcript"
	"github.com/eleven-am/videochat/internal/vision"
	"go.uber.org/fx"
)

func ProvideRegistry(cfg *Config, logger *slog.Logger) (*conversation.Registry, error) {
	registry := conversation.NewRegistry()
	if cfg.TemplatesFile == "" {
		return registry, nil
	}
	n, err := registry.LoadFile(cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	logger.Info("loaded conversation templates", "file", cfg.TemplatesFile, "count", n)
	return registry, nil
}

func ProvideSampler(cfg *Config, logger *slog.Logger) *vision.Sampler {
	return vision.NewSampler(vision.Config{
		SampleCount:      cfg.SampleCount,
		ImageSize:        cfg.ImageSize,
		MaxDecodedFrames: cfg.MaxDecodedFrames,
		FFmpegPath:       cfg.FFmpegPath,
		FFmpegTimeout:    cfg.FFmpegTimeout,
	}, logger)
}

func ProvideBackend(cfg *Config, logger *slog.Logger) (generation.Backend, error) {
	spec := generation.ModelSpec{
		Path:     cfg.ModelPath,
		Base:     cfg.ModelBase,
		Load8Bit: cfg.Load8Bit,
		Load4Bit: cfg.Load4Bit,
		Device:   cfg.Device,
	}
	return generation.New(generation.Config{
		Kind: cfg.ModelBackend,
		Ollama: generation.OllamaConfig{
			URL:         cfg.OllamaURL,
			PullMissing: cfg.OllamaPull,
			Timeout:     cfg.OllamaTimeout,
			KeepAlive:   cfg.OllamaKeepAlive,
		},
		OpenAI: generation.OpenAIConfig{
			URL:     cfg.OpenAIURL,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			System:  cfg.OpenAISystem,
			Timeout: cfg.OpenAITimeout,
		},
	}, spec, logger)
}

// NewChat loads the model and binds it to the configured template.
func NewChat(ctx context.Context, cfg *Config, backend generation.Backend, sampler *vision.Sampler, registry *conversation.Registry, observer chat.Observer, logger *slog.Logger) (*chat.Chat, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ModelLoadTimeout)
	defer cancel()

	opts := generation.DefaultOptions()
	if cfg.MaxNewTokens > 0 {
		opts.MaxNewTokens = cfg.MaxNewTokens
	}
	opts.NumCtx = cfg.NumCtx

	return chat.New(ctx, backend, sampler, registry, chat.Config{
		Template: cfg.ConvTemplate,
		Options:  opts,
		Observer: observer,
	}, logger)
}

func ProvideChat(cfg *Config, backend generation.Backend, sampler *vision.Sampler, registry *conversation.Registry, recorder *metrics.Recorder, logger *slog.Logger) (*chat.Chat, error) {
	return NewChat(context.Background(), cfg, backend, sampler, registry, recorder, logger)
}

type ServiceParams struct {
	fx.In

	Chat        *chat.Chat
	Sampler     *vision.Sampler
	Sessions    *session.Store
	Frames      *vision.Store
	Transcripts *transcript.Store
	Recorder    *metrics.Recorder
	Logger      *slog.Logger
}

func ProvideSessionService(p ServiceParams) *session.Service {
	return session.NewService(session.ServiceConfig{
		Chat:        p.Chat,
		Sessions:    p.Sessions,
		Frames:      p.Frames,
		Restorer:    p.Sampler,
		Transcripts: p.Transcripts,
		Recorder:    p.Recorder,
		Log:         p.Logger,
	})
}

var ChatModule = fx.Options(
	fx.Provide(
		metrics.NewRecorder,
		ProvideRegistry,
		ProvideSampler,
		ProvideBackend,
		ProvideChat,
		ProvideSessionService,
	),
)
