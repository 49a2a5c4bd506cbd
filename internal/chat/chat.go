package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eleven-am/videochat/internal/conversation"
	"github.com/eleven-am/videochat/internal/generation"
	"github.com/eleven-am/videochat/internal/vision"
)

type VideoSampler interface {
	Sample(ctx context.Context, path string) ([]vision.Frame, error)
}

// Observer receives timings for sampling and generation.
type Observer interface {
	ObserveSampling(duration time.Duration, frames int, err error)
	ObserveGeneration(backend string, duration time.Duration, err error)
}

type Config struct {
	Template string
	Options  generation.Options
	Observer Observer
}

// Chat binds one loaded model to a default conversation template. It holds
// no per-conversation state and is safe for concurrent use.
type Chat struct {
	backend  generation.Backend
	sampler  VideoSampler
	registry *conversation.Registry
	template string
	options  generation.Options
	observer Observer
	model    generation.ModelInfo
	logger   *slog.Logger
}

// New loads the model once. The returned Chat shares it across every
// conversation.
func New(ctx context.Context, backend generation.Backend, sampler VideoSampler, registry *conversation.Registry, cfg Config, logger *slog.Logger) (*Chat, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Template == "" {
		cfg.Template = conversation.DefaultTemplate
	}
	if _, err := registry.Get(cfg.Template); err != nil {
		return nil, err
	}
	if cfg.Options.MaxNewTokens == 0 {
		cfg.Options = generation.DefaultOptions()
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}

	model, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	c := &Chat{
		backend:  backend,
		sampler:  sampler,
		registry: registry,
		template: cfg.Template,
		options:  cfg.Options,
		observer: cfg.Observer,
		model:    model,
		logger:   logger.With("component", "chat"),
	}
	c.logger.Info("chat ready", "backend", backend.Name(), "model", model.Name, "template", cfg.Template)
	return c, nil
}

func (c *Chat) Model() generation.ModelInfo { return c.model }

func (c *Chat) Template() string { return c.template }

func (c *Chat) Backend() generation.Backend { return c.backend }

func (c *Chat) Templates() []conversation.Template { return c.registry.List() }

// NewConversation starts an empty conversation from the named template, or
// the default one when name is empty.
func (c *Chat) NewConversation(name string) (*conversation.Conversation, error) {
	if name == "" {
		name = c.template
	}
	return c.registry.New(name)
}

func (c *Chat) ProcessVideo(ctx context.Context, path string) ([]vision.Frame, error) {
	start := time.Now()
	frames, err := c.sampler.Sample(ctx, path)
	c.observer.ObserveSampling(time.Since(start), len(frames), err)
	return frames, err
}

// AppendTurn adds the query and a pending assistant turn to state.
func (c *Chat) AppendTurn(query string, state *conversation.Conversation) (*conversation.Conversation, error) {
	if err := state.AppendTurn(query); err != nil {
		return state, err
	}
	return state, nil
}

// BuildPrompt renders state and checks it carries exactly one image
// placeholder per frame.
func (c *Chat) BuildPrompt(state *conversation.Conversation, frames []vision.Frame) (string, error) {
	prompt, err := state.Prompt()
	if err != nil {
		return "", err
	}
	if n := conversation.CountPlaceholders(prompt); n != len(frames) {
		return "", fmt.Errorf("%w: %d placeholders, %d frames", ErrPromptImageMismatch, n, len(frames))
	}
	return prompt, nil
}

// Generate runs one turn. On success the assistant turn is still pending;
// callers resolve it with Result.Commit. On failure state keeps the pending
// exchange for the caller to roll back.
func (c *Chat) Generate(ctx context.Context, frames []vision.Frame, query string, state *conversation.Conversation) (Result, error) {
	turn := attachPlaceholders(query, len(frames), state)
	if _, err := c.AppendTurn(turn, state); err != nil {
		return Result{State: state}, err
	}

	prompt, err := c.BuildPrompt(state, frames)
	if err != nil {
		return Result{State: state}, err
	}

	stopStr := state.StopString()
	stop := generation.NewKeywordStop(stopStr)

	images := make([][]byte, len(frames))
	for i, f := range frames {
		images[i] = f.Image
	}

	req := generation.Request{
		Prompt:   prompt,
		Messages: state.Messages(),
		Images:   images,
		Stop:     stop.Keywords(),
		Options:  c.options,
	}

	start := time.Now()
	raw, err := c.backend.Generate(ctx, req)
	c.observer.ObserveGeneration(c.backend.Name(), time.Since(start), err)
	if err != nil {
		c.logger.Error("generation failed", "backend", c.backend.Name(), "error", err)
		return Result{State: state}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	text := generation.TrimStop(raw, stopStr)
	c.logger.Debug("generation complete", "frames", len(frames), "chars", len(text), "duration", time.Since(start))

	return Result{
		Text:  text,
		State: state,
		Delta: Delta{
			Query:  query,
			Reply:  text,
			Frames: len(frames),
		},
	}, nil
}

// attachPlaceholders prefixes the query with one placeholder per frame
// unless the clip is already referenced by this query or an earlier turn.
func attachPlaceholders(query string, frames int, state *conversation.Conversation) string {
	if frames == 0 || conversation.CountPlaceholders(query) > 0 {
		return query
	}
	for _, t := range state.Turns {
		if conversation.CountPlaceholders(t.Text()) > 0 {
			return query
		}
	}
	return strings.Repeat(conversation.ImagePlaceholder+"\n", frames) + query
}

type noopObserver struct{}

func (noopObserver) ObserveSampling(time.Duration, int, error) {}
func (noopObserver) ObserveGeneration(string, time.Duration, error) {}
